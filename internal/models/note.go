package models

// Note is the payload installed into Anki for one subject.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

// Field names shared by both note types. They must match the field list of
// the note types created in Anki.
const (
	FieldPrimaryMeaning         = "primary-meaning"
	FieldSecondaryMeanings      = "secondary-meanings"
	FieldPrimaryMeaningMnemonic = "primary-meaning-mnemonic"
	FieldPrimaryReadingMnemonic = "primary-reading-mnemonic"
	FieldReadings               = "readings"
	FieldReferenceURL           = "reference-url"
)
