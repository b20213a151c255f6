package shared

import "errors"

// ErrInvalidCredentials indicates an unknown or revoked API key.
var ErrInvalidCredentials = errors.New("invalid credentials")
