package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/install"
	"github.com/starford/wanikanji/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM installs`).Scan(&count); err != nil {
		t.Fatalf("installs table missing: %v", err)
	}
}

func TestRecordAndGet(t *testing.T) {
	db := testDB(t)
	o := install.Outcome{
		Variant:   models.VariantKanji,
		SubjectID: 440,
		Label:     "火",
		Status:    install.StatusInstalled,
		NoteID:    1496198395707,
		Attempts:  1,
		Checksum:  "abc",
	}
	if err := db.Record(context.Background(), o); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e, err := db.Get("kanji", 440)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Label != "火" || e.Status != "installed" || e.NoteID != 1496198395707 || e.Checksum != "abc" {
		t.Errorf("entry = %+v", e)
	}
	if e.InstalledAt.IsZero() {
		t.Error("installed_at not set")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get("kanji", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordDuplicateKeepsNoteID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.Record(ctx, install.Outcome{Variant: models.VariantKanji, SubjectID: 1, Status: install.StatusInstalled, NoteID: 42})
	_ = db.Record(ctx, install.Outcome{Variant: models.VariantKanji, SubjectID: 1, Status: install.StatusSkippedAsDuplicate})

	e, err := db.Get("kanji", 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Status != "skipped_duplicate" || e.NoteID != 42 {
		t.Errorf("entry = %+v, want skipped_duplicate keeping note 42", e)
	}
}

func TestRecordFailureStoresReason(t *testing.T) {
	db := testDB(t)
	o := install.Outcome{
		Variant:   models.VariantVocabulary,
		SubjectID: 2467,
		Status:    install.StatusFailed,
		Attempts:  5,
		Err:       errors.New("connection refused"),
	}
	if err := db.Record(context.Background(), o); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e, _ := db.Get("vocabulary", 2467)
	if e == nil || e.Error != "connection refused" || e.Attempts != 5 {
		t.Errorf("entry = %+v", e)
	}
}

func TestHistoryAndTotals(t *testing.T) {
	db := testDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Variant: "kanji", SubjectID: 1, Status: "installed", InstalledAt: base},
		{Variant: "kanji", SubjectID: 2, Status: "skipped_duplicate", InstalledAt: base.Add(time.Minute)},
		{Variant: "kanji", SubjectID: 3, Status: "failed", InstalledAt: base.Add(2 * time.Minute)},
		{Variant: "vocabulary", SubjectID: 4, Status: "installed", InstalledAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		if err := db.upsert(context.Background(), e); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	h, err := db.History("kanji", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h) != 2 || h[0].SubjectID != 3 || h[1].SubjectID != 2 {
		t.Errorf("history = %+v, want subjects 3, 2", h)
	}

	all, _ := db.History("", 0)
	if len(all) != 4 || all[0].Variant != "vocabulary" {
		t.Errorf("all history = %+v", all)
	}

	tot, err := db.Totals("kanji")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if tot.Installed != 1 || tot.Skipped != 1 || tot.Failed != 1 {
		t.Errorf("totals = %+v", tot)
	}
	tot, _ = db.Totals("")
	if tot.Installed != 2 {
		t.Errorf("all totals = %+v", tot)
	}
}

func TestPipelineRecordsIntoLedger(t *testing.T) {
	db := testDB(t)
	chars := "一"
	records := models.KanjiRecords([]models.Kanji{{
		Subject: models.Subject{ID: 1, Object: "kanji", Characters: &chars,
			Meanings: []models.Meaning{{Meaning: "one", Primary: true}}},
	}})
	p := install.New(adderFunc(func(context.Context, models.Note) (int64, error) { return 9, nil }),
		install.WithRecorder(db))

	if _, err := p.InstallAll(context.Background(), models.VariantKanji, records, "M", "D"); err != nil {
		t.Fatalf("InstallAll: %v", err)
	}
	e, err := db.Get("kanji", 1)
	if err != nil || e.NoteID != 9 {
		t.Errorf("entry = %+v, err = %v", e, err)
	}
}

type adderFunc func(context.Context, models.Note) (int64, error)

func (f adderFunc) AddNote(ctx context.Context, n models.Note) (int64, error) { return f(ctx, n) }
