package domain

import (
	"errors"
	"strings"
)

// Error kinds surfaced by the vaccination subsystem. Callers match them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrReference  = errors.New("reference error")
	ErrStore      = errors.New("store error")
	ErrTimeout    = errors.New("timeout")
	ErrDelivery   = errors.New("delivery error")
)

// OperationError records which operation failed, on which record, and with what kind.
type OperationError struct {
	Op   string
	ID   string
	Kind error
	Err  error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.Op))
	if id := strings.TrimSpace(e.ID); id != "" {
		b.WriteString(" ")
		b.WriteString(id)
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *OperationError) Unwrap() []error {
	if e == nil {
		return nil
	}

	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
