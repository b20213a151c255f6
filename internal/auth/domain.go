// Package auth maps bearer API keys onto dashboard roles.
package auth

import (
	"errors"

	"github.com/hospitalops/kpi-engine/internal/rbac"
)

// ErrMalformedKey indicates a token that is not of the form "<id>.<secret>".
var ErrMalformedKey = errors.New("auth: malformed api key")

// Key is one configured API key.
type Key struct {
	ID   string
	Role rbac.Role
	hash []byte
}
