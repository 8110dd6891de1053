package llm

import "errors"

// retryableError wraps an error to indicate the call can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError reports whether err or anything it wraps is a
// retryableError.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
