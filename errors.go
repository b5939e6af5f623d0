package datagrid

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrBinding reports a source value the datasource cannot bind, or an
	// operation that needs a bound datasource.
	ErrBinding = errors.New("binding error")
	// ErrDriverLoad reports an unknown or unusable driver kind.
	ErrDriverLoad = errors.New("driver load error")
	// ErrUnsupported reports an operation the active driver does not
	// implement. The concrete error is an [*UnsupportedError].
	ErrUnsupported = errors.New("unsupported operation")
	// ErrQuery reports a backend failure while fetching or counting.
	ErrQuery = errors.New("query error")
	// ErrValidation reports a bad option or argument value.
	ErrValidation = errors.New("validation error")
)

// UnsupportedError is returned when a driver does not implement an
// operation. Hint names the entry point to use instead.
type UnsupportedError struct {
	Op     string
	Driver string
	Hint   string
}

func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("%s: %s is not implemented by driver %q", ErrUnsupported, e.Op, e.Driver)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Is reports whether target is [ErrUnsupported].
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

func unsupported(op, driver, hint string) error {
	return &UnsupportedError{Op: op, Driver: driver, Hint: hint}
}

func queryError(driver string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrQuery, driver, err)
}
