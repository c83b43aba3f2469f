package models

// Kanji field names and tag.
const (
	FieldKanji = "kanji"
	TagKanji   = "wanikani-kanji"
)

// KanjiFields is the ordered field list of the kanji note type.
var KanjiFields = []string{
	FieldKanji,
	FieldPrimaryMeaning,
	FieldSecondaryMeanings,
	FieldPrimaryMeaningMnemonic,
	FieldReadings,
	FieldPrimaryReadingMnemonic,
	FieldReferenceURL,
}

// Kanji is a kanji subject as returned by the WaniKani API.
type Kanji struct {
	Subject
	AmalgamationSubjectIDs    []int          `json:"amalgamation_subject_ids"`
	ComponentSubjectIDs       []int          `json:"component_subject_ids"`
	MeaningHint               *string        `json:"meaning_hint"`
	ReadingHint               *string        `json:"reading_hint"`
	ReadingMnemonic           string         `json:"reading_mnemonic"`
	Readings                  []KanjiReading `json:"readings"`
	VisuallySimilarSubjectIDs []int          `json:"visually_similar_subject_ids"`
}

// KanjiReading is one on'yomi, kun'yomi or nanori reading.
type KanjiReading struct {
	Reading        string `json:"reading"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
	Type           string `json:"type"`
}

// ToNote maps the kanji onto the kanji note type. All readings are listed,
// primary or not.
func (k *Kanji) ToNote(modelName, deckName string) (Note, error) {
	characters, err := k.requireCharacters()
	if err != nil {
		return Note{}, err
	}
	primary, secondary, err := k.splitMeanings()
	if err != nil {
		return Note{}, err
	}
	readings := make([]string, 0, len(k.Readings))
	for _, r := range k.Readings {
		readings = append(readings, r.Reading)
	}

	return Note{
		DeckName:  deckName,
		ModelName: modelName,
		Fields: map[string]string{
			FieldKanji:                  characters,
			FieldPrimaryMeaning:         primary,
			FieldSecondaryMeanings:      joinList(secondary),
			FieldPrimaryMeaningMnemonic: k.MeaningMnemonic,
			FieldPrimaryReadingMnemonic: k.ReadingMnemonic,
			FieldReadings:               joinList(readings),
			FieldReferenceURL:           k.DocumentURL,
		},
		Tags: []string{TagKanji},
	}, nil
}

// KanjiRecords adapts a cached kanji slice to records without copying.
func KanjiRecords(kanji []Kanji) []Record {
	out := make([]Record, len(kanji))
	for i := range kanji {
		out[i] = &kanji[i]
	}
	return out
}
