package ledger

import (
	"context"

	"github.com/starford/wanikanji/internal/install"
)

// Ledger is the install history store. Consumers depend on this interface
// rather than the concrete *DB type.
type Ledger interface {
	Record(ctx context.Context, o install.Outcome) error
	Get(variant string, subjectID int) (*Entry, error)
	History(variant string, limit int) ([]Entry, error)
	Totals(variant string) (Totals, error)
	Close() error
}

// Verify *DB satisfies Ledger and install.Recorder at compile time.
var (
	_ Ledger           = (*DB)(nil)
	_ install.Recorder = (*DB)(nil)
)
