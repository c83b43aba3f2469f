// Package models defines the WaniKani subject records and the note payload
// they are transformed into.
package models

import (
	"fmt"
	"strings"

	"github.com/starford/wanikanji/internal/apperr"
)

// Record is a cached subject that can be turned into exactly one note.
// Kanji and Vocabulary are the two implementations.
type Record interface {
	SubjectID() int
	Label() string
	ToNote(modelName, deckName string) (Note, error)
}

// Subject holds the fields shared by every subject type.
type Subject struct {
	ID            int    `json:"id"`
	Object        string `json:"object"`
	URL           string `json:"url"`
	DataUpdatedAt string `json:"data_updated_at,omitempty"`

	AuxiliaryMeanings []AuxiliaryMeaning `json:"auxiliary_meanings"`
	// Characters is null only for image-only radicals, which this tool
	// never fetches.
	Characters               *string   `json:"characters"`
	CreatedAt                string    `json:"created_at"`
	DocumentURL              string    `json:"document_url"`
	HiddenAt                 *string   `json:"hidden_at"`
	LessonPosition           int       `json:"lesson_position"`
	Level                    int       `json:"level"`
	MeaningMnemonic          string    `json:"meaning_mnemonic"`
	Meanings                 []Meaning `json:"meanings"`
	Slug                     string    `json:"slug"`
	SpacedRepetitionSystemID int       `json:"spaced_repetition_system_id"`
}

// Meaning is one accepted translation of a subject.
type Meaning struct {
	Meaning        string `json:"meaning"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
}

// AuxiliaryMeaning is a whitelisted or blacklisted alternative answer.
type AuxiliaryMeaning struct {
	Meaning string `json:"meaning"`
	Type    string `json:"type"`
}

// SubjectID returns the WaniKani subject id.
func (s *Subject) SubjectID() int { return s.ID }

// Label returns the characters, or the slug when characters are missing.
func (s *Subject) Label() string {
	if s.Characters != nil {
		return *s.Characters
	}
	return s.Slug
}

func (s *Subject) requireCharacters() (string, error) {
	if s.Characters == nil || *s.Characters == "" {
		return "", s.violation("characters missing")
	}
	return *s.Characters, nil
}

// splitMeanings returns the single primary meaning and the others in order.
func (s *Subject) splitMeanings() (string, []string, error) {
	primary, secondary, n := "", make([]string, 0, len(s.Meanings)), 0
	for _, m := range s.Meanings {
		if m.Primary {
			primary = m.Meaning
			n++
			continue
		}
		secondary = append(secondary, m.Meaning)
	}
	if n != 1 {
		return "", nil, s.violation(fmt.Sprintf("expected exactly one primary meaning, found %d", n))
	}
	return primary, secondary, nil
}

func (s *Subject) violation(msg string) error {
	return fmt.Errorf("%w: subject %d (%s): %s", apperr.ErrInvariantViolation, s.ID, s.Object, msg)
}

// joinList joins values the way Anki fields display alternatives.
func joinList(values []string) string {
	return strings.Join(values, ", ")
}

// SetResource copies the collection envelope metadata onto the subject.
func (s *Subject) SetResource(id int, object, url, dataUpdatedAt string) {
	s.ID = id
	s.Object = object
	s.URL = url
	s.DataUpdatedAt = dataUpdatedAt
}
