package workflow

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable reason an action was rejected.
type Kind string

const (
	KindInvalidTransition Kind = "InvalidTransition"
	KindValidation        Kind = "ValidationError"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
)

// Rejection is returned for every refused action. A rejected action leaves
// the inquiry untouched.
type Rejection struct {
	Kind   Kind
	Field  string
	Reason string
}

func (r *Rejection) Error() string {
	if r.Field != "" {
		return fmt.Sprintf("%s: %s: %s", r.Kind, r.Field, r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

func (r *Rejection) Unwrap() error {
	if r.Kind == KindValidation {
		return ErrValidation
	}
	return ErrInvalidTransition
}

func invalidTransition(format string, args ...interface{}) error {
	return &Rejection{Kind: KindInvalidTransition, Reason: fmt.Sprintf(format, args...)}
}

func invalidField(field, format string, args ...interface{}) error {
	return &Rejection{Kind: KindValidation, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Invalid builds a ValidationError for callers outside the machine that check
// input on the same terms (creation, upload references).
func Invalid(field, reason string) error {
	return &Rejection{Kind: KindValidation, Field: field, Reason: reason}
}
