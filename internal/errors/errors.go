// internal/errors/errors.go
package errors

import "fmt"

// ErrUnknownProvider is returned when PROVIDER names a provider family this
// build does not support.
type ErrUnknownProvider struct {
	Provider string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown provider: %q, expected 'github' or 'gitlab'", e.Provider)
}

// ErrInvalidDateRange is returned when a sync range ends before it starts.
type ErrInvalidDateRange struct {
	Start string
	End   string
}

func (e *ErrInvalidDateRange) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s", e.Start, e.End)
}
