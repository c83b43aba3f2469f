// Package catalog answers read-only questions about cached subjects and
// their install history. The HTTP API, the MCP server and the status
// command all go through it.
package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/install"
	"github.com/starford/wanikanji/internal/ledger"
	"github.com/starford/wanikanji/internal/models"
	"github.com/starford/wanikanji/internal/snapshot"
)

// SubjectDetail is a cached subject enriched with its install state.
type SubjectDetail struct {
	Variant        models.Variant `json:"variant"`
	SubjectID      int            `json:"subject_id"`
	Label          string         `json:"label"`
	Slug           string         `json:"slug"`
	Level          int            `json:"level"`
	PrimaryMeaning string         `json:"primary_meaning"`
	DocumentURL    string         `json:"document_url"`
	Install        *ledger.Entry  `json:"install,omitempty"`
}

// VariantStatus summarizes one variant for the status report.
type VariantStatus struct {
	Variant  models.Variant `json:"variant"`
	Snapshot *snapshot.Meta `json:"snapshot,omitempty"`
	Totals   ledger.Totals  `json:"totals"`
}

// Service coordinates the snapshot store and the ledger.
type Service struct {
	store  snapshot.Store
	ledger ledger.Ledger
}

// NewService creates a catalog over store and l.
func NewService(store snapshot.Store, l ledger.Ledger) *Service {
	return &Service{store: store, ledger: l}
}

// Snapshots lists stored snapshots.
func (s *Service) Snapshots(_ context.Context) ([]snapshot.Meta, error) {
	metas, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(metas), nil
}

// SnapshotMeta returns the metadata of one snapshot, or apperr.ErrNotFound.
func (s *Service) SnapshotMeta(ctx context.Context, key string) (*snapshot.Meta, error) {
	metas, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	for i := range metas {
		if metas[i].Key == key {
			return &metas[i], nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Lookup finds a cached subject by characters, slug or numeric id.
func (s *Service) Lookup(_ context.Context, variant models.Variant, query string) (*SubjectDetail, error) {
	records, err := install.LoadRecords(s.store, variant)
	if err != nil {
		return nil, err
	}
	id, idErr := strconv.Atoi(query)
	for _, rec := range records {
		subj := subjectOf(rec)
		if subj == nil {
			continue
		}
		if rec.Label() == query || subj.Slug == query || (idErr == nil && subj.ID == id) {
			return s.detail(variant, subj)
		}
	}
	return nil, apperr.ErrNotFound
}

// PreviewNote transforms one cached subject into the note that install
// would send, without sending it.
func (s *Service) PreviewNote(_ context.Context, variant models.Variant, subjectID int, modelName, deckName string) (*models.Note, error) {
	records, err := install.LoadRecords(s.store, variant)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.SubjectID() != subjectID {
			continue
		}
		note, err := rec.ToNote(modelName, deckName)
		if err != nil {
			return nil, err
		}
		return &note, nil
	}
	return nil, apperr.ErrNotFound
}

// History returns recent install outcomes, newest first.
func (s *Service) History(_ context.Context, variant string, limit int) ([]ledger.Entry, error) {
	return s.ledger.History(variant, limit)
}

// Totals counts install outcomes by status.
func (s *Service) Totals(_ context.Context, variant string) (ledger.Totals, error) {
	return s.ledger.Totals(variant)
}

// Status reports snapshot presence and install totals per variant.
func (s *Service) Status(ctx context.Context) ([]VariantStatus, error) {
	out := make([]VariantStatus, 0, len(models.Variants))
	for _, v := range models.Variants {
		st := VariantStatus{Variant: v}
		meta, err := s.SnapshotMeta(ctx, string(v))
		switch {
		case err == nil:
			st.Snapshot = meta
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
		if st.Totals, err = s.ledger.Totals(string(v)); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) detail(variant models.Variant, subj *models.Subject) (*SubjectDetail, error) {
	d := &SubjectDetail{
		Variant:     variant,
		SubjectID:   subj.ID,
		Label:       subj.Label(),
		Slug:        subj.Slug,
		Level:       subj.Level,
		DocumentURL: subj.DocumentURL,
	}
	for _, m := range subj.Meanings {
		if m.Primary {
			d.PrimaryMeaning = m.Meaning
			break
		}
	}
	entry, err := s.ledger.Get(string(variant), subj.ID)
	switch {
	case err == nil:
		d.Install = entry
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	return d, nil
}

func subjectOf(rec models.Record) *models.Subject {
	switch r := rec.(type) {
	case *models.Kanji:
		return &r.Subject
	case *models.Vocabulary:
		return &r.Subject
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
