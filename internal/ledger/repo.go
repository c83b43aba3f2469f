package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/install"
)

// Entry is one row of the installs table.
type Entry struct {
	Variant     string    `json:"variant"`
	SubjectID   int       `json:"subject_id"`
	Label       string    `json:"label"`
	Status      string    `json:"status"`
	NoteID      int64     `json:"note_id,omitempty"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
}

// Totals counts the latest status of every subject of a variant.
type Totals struct {
	Variant   string `json:"variant,omitempty"`
	Installed int    `json:"installed"`
	Skipped   int    `json:"skipped_duplicate"`
	Failed    int    `json:"failed"`
}

const upsertSQL = `
	INSERT INTO installs (variant, subject_id, label, status, note_id, attempts, error, checksum, installed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(variant, subject_id) DO UPDATE SET
		label        = excluded.label,
		status       = excluded.status,
		note_id      = CASE WHEN excluded.note_id != 0 THEN excluded.note_id ELSE installs.note_id END,
		attempts     = excluded.attempts,
		error        = excluded.error,
		checksum     = excluded.checksum,
		installed_at = excluded.installed_at
`

// Record stores the outcome of one install attempt. A later duplicate
// outcome keeps the note id learned from an earlier install.
func (db *DB) Record(ctx context.Context, o install.Outcome) error {
	return db.upsert(ctx, fromOutcome(o, time.Now().UTC()))
}

func (db *DB) upsert(ctx context.Context, e Entry) error {
	if _, err := db.conn.ExecContext(ctx, upsertSQL, e.args()...); err != nil {
		return fmt.Errorf("ledger: record: %w", err)
	}
	return nil
}

// Get returns the entry of one subject, or apperr.ErrNotFound.
func (db *DB) Get(variant string, subjectID int) (*Entry, error) {
	row := db.conn.QueryRow(`
		SELECT variant, subject_id, label, status, note_id, attempts, error, checksum, installed_at
		FROM installs WHERE variant = ? AND subject_id = ?`, variant, subjectID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	return &e, nil
}

// History returns the most recent entries, newest first. An empty variant
// means every variant; a non-positive limit means 50.
func (db *DB) History(variant string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT variant, subject_id, label, status, note_id, attempts, error, checksum, installed_at
		FROM installs
		WHERE ? = '' OR variant = ?
		ORDER BY installed_at DESC, subject_id DESC
		LIMIT ?`, variant, variant, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: history: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Totals counts entries by status. An empty variant counts every variant.
func (db *DB) Totals(variant string) (Totals, error) {
	rows, err := db.conn.Query(`
		SELECT status, count(*) FROM installs
		WHERE ? = '' OR variant = ?
		GROUP BY status`, variant, variant)
	if err != nil {
		return Totals{}, fmt.Errorf("ledger: totals: %w", err)
	}
	defer rows.Close()

	t := Totals{Variant: variant}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Totals{}, fmt.Errorf("ledger: totals: %w", err)
		}
		switch install.Status(status) {
		case install.StatusInstalled:
			t.Installed = n
		case install.StatusSkippedAsDuplicate:
			t.Skipped = n
		case install.StatusFailed:
			t.Failed = n
		}
	}
	return t, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Variant, &e.SubjectID, &e.Label, &e.Status, &e.NoteID,
		&e.Attempts, &e.Error, &e.Checksum, &e.InstalledAt)
	return e, err
}

func (e Entry) args() []any {
	return []any{e.Variant, e.SubjectID, e.Label, e.Status, e.NoteID,
		e.Attempts, e.Error, e.Checksum, e.InstalledAt}
}

func fromOutcome(o install.Outcome, at time.Time) Entry {
	e := Entry{
		Variant:     string(o.Variant),
		SubjectID:   o.SubjectID,
		Label:       o.Label,
		Status:      string(o.Status),
		NoteID:      o.NoteID,
		Attempts:    o.Attempts,
		Checksum:    o.Checksum,
		InstalledAt: at,
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}
