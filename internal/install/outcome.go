package install

import (
	"github.com/starford/wanikanji/internal/models"
)

// Status is the final state of one record.
type Status string

const (
	StatusInstalled          Status = "installed"
	StatusSkippedAsDuplicate Status = "skipped_duplicate"
	StatusFailed             Status = "failed"
)

// Outcome is the result of installing one record.
type Outcome struct {
	Variant   models.Variant
	SubjectID int
	Label     string
	Status    Status
	NoteID    int64
	Attempts  int
	// Checksum identifies the note payload that was sent. Empty when the
	// record could not be transformed.
	Checksum string
	Err      error
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	Total     int
	Installed int
	Skipped   int
	Failed    int
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusInstalled:
			s.Installed++
		case StatusSkippedAsDuplicate:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Result is the one-line verdict of a run.
func (s Summary) Result() string {
	switch {
	case s.Failed > 0:
		return "some failed"
	case s.Skipped > 0:
		return "some duplicates skipped"
	default:
		return "all installed"
	}
}
