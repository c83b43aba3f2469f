// Package testutil provides shared test helpers for caches, ledgers and
// sample subjects.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/wanikanji/internal/ledger"
	"github.com/starford/wanikanji/internal/models"
	"github.com/starford/wanikanji/internal/snapshot"
)

// TestLedger creates a temporary SQLite ledger that is automatically closed.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCache creates a temporary cache directory with a snapshot store.
func TestCache(t *testing.T) (string, *snapshot.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := snapshot.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

func str(s string) *string { return &s }

// SampleKanji returns two well-formed kanji, 火 (440) and 水 (441).
func SampleKanji() []models.Kanji {
	return []models.Kanji{
		{
			Subject: models.Subject{
				ID:              440,
				Object:          "kanji",
				Characters:      str("火"),
				Slug:            "火",
				Level:           4,
				DocumentURL:     "https://www.wanikani.com/kanji/火",
				MeaningMnemonic: "Fire mnemonic.",
				Meanings: []models.Meaning{
					{Meaning: "Fire", Primary: true, AcceptedAnswer: true},
					{Meaning: "Blaze", AcceptedAnswer: true},
				},
			},
			ReadingMnemonic: "Ka mnemonic.",
			Readings: []models.KanjiReading{
				{Reading: "か", Primary: true, AcceptedAnswer: true, Type: "onyomi"},
				{Reading: "ひ", Type: "kunyomi"},
			},
		},
		{
			Subject: models.Subject{
				ID:          441,
				Object:      "kanji",
				Characters:  str("水"),
				Slug:        "水",
				Level:       4,
				DocumentURL: "https://www.wanikani.com/kanji/水",
				Meanings:    []models.Meaning{{Meaning: "Water", Primary: true, AcceptedAnswer: true}},
			},
			Readings: []models.KanjiReading{{Reading: "すい", Primary: true, AcceptedAnswer: true, Type: "onyomi"}},
		},
	}
}

// SampleVocabulary returns one well-formed word, 大人 (2467).
func SampleVocabulary() []models.Vocabulary {
	return []models.Vocabulary{
		{
			Subject: models.Subject{
				ID:          2467,
				Object:      "vocabulary",
				Characters:  str("大人"),
				Slug:        "大人",
				Level:       3,
				DocumentURL: "https://www.wanikani.com/vocabulary/大人",
				Meanings:    []models.Meaning{{Meaning: "Adult", Primary: true, AcceptedAnswer: true}},
			},
			Readings: []models.VocabularyReading{
				{Reading: "おとな", Primary: true, AcceptedAnswer: true},
				{Reading: "だいにん"},
			},
			ContextSentences: []models.ContextSentence{
				{EN: "I am an adult.", JA: "私は大人です。"},
			},
		},
	}
}
