// Package validation gates records before they reach the KPI calculators. It wraps
// go-playground/validator with Brazilian document and phone checks.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
)

// ErrInvalidRecord is returned for any record that fails validation. It matches
// httpx.ErrValidation so handlers map it to 400.
var ErrInvalidRecord = fmt.Errorf("validation: invalid record: %w", httpx.ErrValidation)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// FieldError describes one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Error lists every field that failed for one record.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+":"+f.Rule)
	}
	return ErrInvalidRecord.Error() + " (" + strings.Join(parts, ", ") + ")"
}

// Unwrap lets errors.Is match ErrInvalidRecord and httpx.ErrValidation.
func (e *Error) Unwrap() error { return ErrInvalidRecord }

// Validator validates structs tagged with `validate`.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom tags cpf, cnpj, br_phone, isodate and hhmm.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	custom := map[string]func(string) bool{
		"cpf":      ValidCPF,
		"cnpj":     ValidCNPJ,
		"br_phone": ValidPhone,
		"isodate":  ValidISODate,
		"hhmm":     ValidHHMM,
	}
	for tag, fn := range custom {
		check := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("validation: register %s: %v", tag, err))
		}
	}
	return &Validator{v: v}
}

// Struct validates s and returns an *Error listing failed fields.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// Var validates a single value against tag.
func (val *Validator) Var(value any, tag string) error {
	if err := val.v.Var(value, tag); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, tag)
	}
	return nil
}

// ValidISODate reports whether value is a real YYYY-MM-DD calendar date.
func ValidISODate(value string) bool {
	if len(value) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// ValidHHMM reports whether value is a 24h HH:MM time.
func ValidHHMM(value string) bool {
	return hhmmPattern.MatchString(value)
}
