// Package install drives cached records through note transformation and
// duplicate-tolerant delivery to Anki.
package install

import (
	"context"
	"errors"

	"github.com/starford/wanikanji/internal/ankiconnect"
)

// Decision is what the retry driver does with the result of one attempt.
type Decision int

const (
	// Succeed means the note was created.
	Succeed Decision = iota
	// TreatAsSuccess means the note already exists.
	TreatAsSuccess
	// Retry means the endpoint could not be reached and another attempt may help.
	Retry
	// Fail ends the record with a failure.
	Fail
)

func (d Decision) String() string {
	switch d {
	case Succeed:
		return "succeed"
	case TreatAsSuccess:
		return "treat-as-success"
	case Retry:
		return "retry"
	default:
		return "fail"
	}
}

// Classify maps the error of an add-note attempt to a Decision. Only
// connection-establishment failures are retried; timeouts after connect,
// decode failures and API errors other than the duplicate message are final.
func Classify(err error) Decision {
	switch {
	case err == nil:
		return Succeed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Fail
	case ankiconnect.IsDuplicate(err):
		return TreatAsSuccess
	case ankiconnect.IsConnectionError(err):
		return Retry
	default:
		return Fail
	}
}
