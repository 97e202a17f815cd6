package catalog

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUpstreamUnavailable covers transport failures and non-success answers
	// from list-style endpoints.
	ErrUpstreamUnavailable = errors.New("catalog: upstream unavailable")
	// ErrNotFound is returned by Details when the catalog does not answer 200.
	ErrNotFound = errors.New("catalog: not found")
	// ErrMalformedResponse means a record could not be normalized; the whole
	// batch is rejected.
	ErrMalformedResponse = errors.New("catalog: malformed response")
)

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// failure maps a non-200 answer to onStatus and leaves other errors classified.
func failure(err error, onStatus error, op string) error {
	var se *statusError
	if errors.As(err, &se) {
		return errors.Wrapf(onStatus, "%s: %s", op, se)
	}
	return errors.Wrap(err, op)
}
