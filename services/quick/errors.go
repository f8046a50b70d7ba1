package quick

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// FieldError reports a value that failed schema validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every field error of a submission. No log is
// created when Submit returns one.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	fields := e.Fields()
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid submission: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.errs.ErrorOrNil()
}

// Fields returns the individual field errors in the order they were found.
func (e *ValidationError) Fields() []*FieldError {
	if e == nil || e.errs == nil {
		return nil
	}
	out := make([]*FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = multierror.Append(v.errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) err() error {
	if v.errs.ErrorOrNil() == nil {
		return nil
	}
	return &ValidationError{errs: v.errs}
}
