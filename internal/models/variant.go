package models

import "fmt"

// Variant names a subject type. Its string form is also the snapshot key.
type Variant string

const (
	VariantKanji      Variant = "kanji"
	VariantVocabulary Variant = "vocabulary"
)

// Variants lists every supported variant in install order.
var Variants = []Variant{VariantKanji, VariantVocabulary}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantKanji, VariantVocabulary:
		return v, nil
	}
	return "", fmt.Errorf("unknown variant %q (want kanji or vocabulary)", s)
}

// Fields returns the ordered note-type field list of the variant.
func (v Variant) Fields() []string {
	if v == VariantVocabulary {
		return VocabularyFields
	}
	return KanjiFields
}

// Tag returns the category tag put on every note of the variant.
func (v Variant) Tag() string {
	if v == VariantVocabulary {
		return TagVocabulary
	}
	return TagKanji
}
