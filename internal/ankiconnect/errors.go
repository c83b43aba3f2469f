package ankiconnect

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// DuplicateNoteMessage is the error AnkiConnect returns when a note with
// the same first field already exists in the deck.
const DuplicateNoteMessage = "cannot create note because it is a duplicate"

var (
	// ErrTransport wraps failures to reach or read from the endpoint.
	ErrTransport = errors.New("ankiconnect: transport error")
	// ErrEmptyResponse is a reply with neither a result nor an error.
	ErrEmptyResponse = errors.New("ankiconnect: response has neither result nor error")
	// ErrDecode wraps malformed reply bodies.
	ErrDecode = errors.New("ankiconnect: decode response")
)

// APIError is an error string reported by AnkiConnect itself.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ankiconnect: %s: %s", e.Action, e.Message)
}

// IsDuplicate reports whether err is the duplicate-note API error.
func IsDuplicate(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, DuplicateNoteMessage)
}

// IsConnectionError reports whether err is a failure to establish the
// connection. Failures after the connection was made, such as read
// timeouts or API errors, are not connection errors. A dial cut short by
// http.Client.Timeout surfaces as a client timeout rather than a dial error
// and is not one either; a dialer's own timeout is.
func IsConnectionError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// IsModelExists reports whether err is AnkiConnect refusing to create a note
// type whose name is taken.
func IsModelExists(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "Model name already exists")
}
