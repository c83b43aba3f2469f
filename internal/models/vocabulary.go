package models

import "fmt"

// Vocabulary field names and tag.
const (
	FieldVocabulary     = "vocabulary"
	FieldPrimaryReading = "primary-reading"
	TagVocabulary       = "wanikani-vocabulary"

	// MaxContextSentences caps how many example sentences become fields.
	MaxContextSentences = 3
)

// ContextSentenceField returns the field name of sentence i in lang ("en" or "ja").
func ContextSentenceField(i int, lang string) string {
	return fmt.Sprintf("context-sentence-%d-%s", i, lang)
}

// VocabularyFields is the ordered field list of the vocabulary note type.
var VocabularyFields = func() []string {
	fields := []string{
		FieldVocabulary,
		FieldPrimaryMeaning,
		FieldSecondaryMeanings,
		FieldPrimaryMeaningMnemonic,
		FieldPrimaryReading,
		FieldReadings,
		FieldPrimaryReadingMnemonic,
	}
	for i := range MaxContextSentences {
		fields = append(fields, ContextSentenceField(i, "en"), ContextSentenceField(i, "ja"))
	}
	return append(fields, FieldReferenceURL)
}()

// Vocabulary is a vocabulary subject as returned by the WaniKani API.
type Vocabulary struct {
	Subject
	ComponentSubjectIDs []int                `json:"component_subject_ids"`
	ContextSentences    []ContextSentence    `json:"context_sentences"`
	PartsOfSpeech       []string             `json:"parts_of_speech"`
	PronunciationAudios []PronunciationAudio `json:"pronunciation_audios"`
	Readings            []VocabularyReading  `json:"readings"`
	ReadingMnemonic     string               `json:"reading_mnemonic"`
}

// ContextSentence is a bilingual example sentence.
type ContextSentence struct {
	EN string `json:"en"`
	JA string `json:"ja"`
}

// PronunciationAudio points at a recorded pronunciation.
type PronunciationAudio struct {
	URL         string                `json:"url"`
	ContentType string                `json:"content_type"`
	Metadata    PronunciationMetadata `json:"metadata"`
}

// PronunciationMetadata describes the voice actor of a recording.
type PronunciationMetadata struct {
	Gender           string `json:"gender"`
	SourceID         int    `json:"source_id"`
	Pronunciation    string `json:"pronunciation"`
	VoiceActorID     int    `json:"voice_actor_id"`
	VoiceActorName   string `json:"voice_actor_name"`
	VoiceDescription string `json:"voice_description"`
}

// VocabularyReading is one accepted reading of a vocabulary word.
type VocabularyReading struct {
	AcceptedAnswer bool   `json:"accepted_answer"`
	Primary        bool   `json:"primary"`
	Reading        string `json:"reading"`
}

// ToNote maps the word onto the vocabulary note type. Only the first
// MaxContextSentences sentences are kept; missing ones leave no field.
func (v *Vocabulary) ToNote(modelName, deckName string) (Note, error) {
	characters, err := v.requireCharacters()
	if err != nil {
		return Note{}, err
	}
	primaryMeaning, secondaryMeanings, err := v.splitMeanings()
	if err != nil {
		return Note{}, err
	}
	primaryReading, secondaryReadings, err := v.splitReadings()
	if err != nil {
		return Note{}, err
	}

	fields := map[string]string{
		FieldVocabulary:             characters,
		FieldPrimaryMeaning:         primaryMeaning,
		FieldSecondaryMeanings:      joinList(secondaryMeanings),
		FieldPrimaryMeaningMnemonic: v.MeaningMnemonic,
		FieldPrimaryReading:         primaryReading,
		FieldPrimaryReadingMnemonic: v.ReadingMnemonic,
		FieldReadings:               joinList(secondaryReadings),
		FieldReferenceURL:           v.DocumentURL,
	}
	for i, s := range v.ContextSentences {
		if i == MaxContextSentences {
			break
		}
		fields[ContextSentenceField(i, "en")] = s.EN
		fields[ContextSentenceField(i, "ja")] = s.JA
	}

	return Note{
		DeckName:  deckName,
		ModelName: modelName,
		Fields:    fields,
		Tags:      []string{TagVocabulary},
	}, nil
}

func (v *Vocabulary) splitReadings() (string, []string, error) {
	primary, secondary, n := "", make([]string, 0, len(v.Readings)), 0
	for _, r := range v.Readings {
		if r.Primary {
			primary = r.Reading
			n++
			continue
		}
		secondary = append(secondary, r.Reading)
	}
	if n != 1 {
		return "", nil, v.violation(fmt.Sprintf("expected exactly one primary reading, found %d", n))
	}
	return primary, secondary, nil
}

// VocabularyRecords adapts a cached vocabulary slice to records without copying.
func VocabularyRecords(vocabulary []Vocabulary) []Record {
	out := make([]Record, len(vocabulary))
	for i := range vocabulary {
		out[i] = &vocabulary[i]
	}
	return out
}
