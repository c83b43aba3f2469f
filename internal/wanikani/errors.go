package wanikani

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrHTTP wraps transport failures (DNS, refused connection, TLS).
	ErrHTTP = errors.New("wanikani: http request error")
	// ErrDecode wraps malformed response bodies.
	ErrDecode = errors.New("wanikani: decode response")
)

// QueryFailedError is a non-success status other than 429.
type QueryFailedError struct {
	StatusCode int
	URL        string
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("wanikani: request returned non-success status %d %s (%s)",
		e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
