package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/wanikanji/internal/apperr"
)

func strPtr(s string) *string { return &s }

func sampleKanji() *Kanji {
	return &Kanji{
		Subject: Subject{
			ID:              440,
			Object:          "kanji",
			Characters:      strPtr("火"),
			DocumentURL:     "https://www.wanikani.com/kanji/%E7%81%AB",
			MeaningMnemonic: "Fire is a person with arms flailing.",
			Meanings: []Meaning{
				{Meaning: "fire", Primary: true, AcceptedAnswer: true},
				{Meaning: "blaze", Primary: false, AcceptedAnswer: true},
			},
		},
		ReadingMnemonic: "The fire says ka.",
		Readings: []KanjiReading{
			{Reading: "か", Primary: true, Type: "onyomi"},
			{Reading: "ひ", Primary: false, Type: "kunyomi"},
			{Reading: "ほ", Primary: false, Type: "kunyomi"},
		},
	}
}

func sampleVocabulary(sentences int) *Vocabulary {
	v := &Vocabulary{
		Subject: Subject{
			ID:              2467,
			Object:          "vocabulary",
			Characters:      strPtr("一つ"),
			DocumentURL:     "https://www.wanikani.com/vocabulary/%E4%B8%80%E3%81%A4",
			MeaningMnemonic: "One thing.",
			Meanings: []Meaning{
				{Meaning: "one thing", Primary: true},
				{Meaning: "one item", Primary: false},
				{Meaning: "one", Primary: false},
			},
		},
		ReadingMnemonic: "Hito-tsu.",
		Readings: []VocabularyReading{
			{Reading: "いち", Primary: false},
			{Reading: "ひとつ", Primary: true},
		},
	}
	for i := range sentences {
		v.ContextSentences = append(v.ContextSentences, ContextSentence{
			EN: "en " + string(rune('a'+i)),
			JA: "ja " + string(rune('a'+i)),
		})
	}
	return v
}

func TestKanjiToNote(t *testing.T) {
	note, err := sampleKanji().ToNote("WaniKani Kanji", "Kanji Deck")
	if err != nil {
		t.Fatalf("ToNote: %v", err)
	}
	if note.DeckName != "Kanji Deck" || note.ModelName != "WaniKani Kanji" {
		t.Errorf("deck/model = %q/%q", note.DeckName, note.ModelName)
	}
	want := map[string]string{
		FieldKanji:                  "火",
		FieldPrimaryMeaning:         "fire",
		FieldSecondaryMeanings:      "blaze",
		FieldPrimaryMeaningMnemonic: "Fire is a person with arms flailing.",
		FieldPrimaryReadingMnemonic: "The fire says ka.",
		FieldReadings:               "か, ひ, ほ",
		FieldReferenceURL:           "https://www.wanikani.com/kanji/%E7%81%AB",
	}
	if len(note.Fields) != len(want) {
		t.Errorf("fields = %v", note.Fields)
	}
	for k, v := range want {
		if note.Fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, note.Fields[k], v)
		}
	}
	if len(note.Tags) != 1 || note.Tags[0] != TagKanji {
		t.Errorf("tags = %v", note.Tags)
	}
}

func TestKanjiToNote_NoSecondaryMeanings(t *testing.T) {
	k := sampleKanji()
	k.Meanings = k.Meanings[:1]
	note, err := k.ToNote("m", "d")
	if err != nil {
		t.Fatalf("ToNote: %v", err)
	}
	if got := note.Fields[FieldSecondaryMeanings]; got != "" {
		t.Errorf("secondary meanings = %q, want empty", got)
	}
}

func TestKanjiToNote_MissingCharacters(t *testing.T) {
	k := sampleKanji()
	k.Characters = nil
	_, err := k.ToNote("m", "d")
	if !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("err = %v, want invariant violation", err)
	}
	if !strings.Contains(err.Error(), "440") {
		t.Errorf("error should name the subject: %v", err)
	}
}

func TestKanjiToNote_PrimaryMeaningCount(t *testing.T) {
	none := sampleKanji()
	none.Meanings[0].Primary = false
	if _, err := none.ToNote("m", "d"); !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Errorf("no primary: err = %v", err)
	}

	two := sampleKanji()
	two.Meanings[1].Primary = true
	if _, err := two.ToNote("m", "d"); !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Errorf("two primaries: err = %v", err)
	}
}

func TestVocabularyToNote(t *testing.T) {
	note, err := sampleVocabulary(2).ToNote("WaniKani Vocabulary", "Vocab Deck")
	if err != nil {
		t.Fatalf("ToNote: %v", err)
	}
	checks := map[string]string{
		FieldVocabulary:             "一つ",
		FieldPrimaryMeaning:         "one thing",
		FieldSecondaryMeanings:      "one item, one",
		FieldPrimaryReading:         "ひとつ",
		FieldReadings:               "いち",
		FieldPrimaryReadingMnemonic: "Hito-tsu.",
		"context-sentence-0-en":     "en a",
		"context-sentence-0-ja":     "ja a",
		"context-sentence-1-en":     "en b",
		"context-sentence-1-ja":     "ja b",
	}
	for k, v := range checks {
		if note.Fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, note.Fields[k], v)
		}
	}
	if _, ok := note.Fields["context-sentence-2-en"]; ok {
		t.Error("sentence 2 should be absent when only two exist")
	}
	if len(note.Tags) != 1 || note.Tags[0] != TagVocabulary {
		t.Errorf("tags = %v", note.Tags)
	}
}

func TestVocabularyToNote_CapsContextSentences(t *testing.T) {
	note, err := sampleVocabulary(5).ToNote("m", "d")
	if err != nil {
		t.Fatalf("ToNote: %v", err)
	}
	for i := range 3 {
		if _, ok := note.Fields[ContextSentenceField(i, "en")]; !ok {
			t.Errorf("sentence %d en missing", i)
		}
		if _, ok := note.Fields[ContextSentenceField(i, "ja")]; !ok {
			t.Errorf("sentence %d ja missing", i)
		}
	}
	for i := 3; i < 5; i++ {
		if _, ok := note.Fields[ContextSentenceField(i, "en")]; ok {
			t.Errorf("sentence %d should be dropped", i)
		}
	}
	if note.Fields["context-sentence-2-en"] != "en c" {
		t.Errorf("third sentence = %q", note.Fields["context-sentence-2-en"])
	}
}

func TestVocabularyToNote_PrimaryReadingRequired(t *testing.T) {
	v := sampleVocabulary(0)
	v.Readings[1].Primary = false
	_, err := v.ToNote("m", "d")
	if !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("err = %v, want invariant violation", err)
	}
}

func TestVocabularyFieldsCoverNote(t *testing.T) {
	note, err := sampleVocabulary(5).ToNote("m", "d")
	if err != nil {
		t.Fatalf("ToNote: %v", err)
	}
	declared := make(map[string]bool, len(VocabularyFields))
	for _, f := range VocabularyFields {
		declared[f] = true
	}
	for k := range note.Fields {
		if !declared[k] {
			t.Errorf("field %q not declared on the note type", k)
		}
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant("kanji"); err != nil || v != VariantKanji {
		t.Errorf("ParseVariant(kanji) = %v, %v", v, err)
	}
	if _, err := ParseVariant("radical"); err == nil {
		t.Error("radical should be rejected")
	}
}
