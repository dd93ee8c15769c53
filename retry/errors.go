package retry

import (
	"errors"
	"fmt"
	"strings"
)

// MultiError collects the error of every attempt
type MultiError struct {
	Errors   []error
	Attempts int
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("retry failed after %d attempts", e.Attempts)
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("retry failed after %d attempts: [%s]", e.Attempts, strings.Join(msgs, "; "))
}

// Unwrap exposes every attempt error to errors.Is / errors.As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Last returns the final attempt error
func (e *MultiError) Last() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// GetAttempts returns the number of attempts recorded in err
func GetAttempts(err error) int {
	var multiErr *MultiError
	if errors.As(err, &multiErr) {
		return multiErr.Attempts
	}
	return 0
}
