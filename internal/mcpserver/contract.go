package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/wanikanji/internal/models"
)

var fieldSources = map[string]string{
	models.FieldKanji:                  "the kanji characters",
	models.FieldVocabulary:             "the vocabulary characters",
	models.FieldPrimaryMeaning:         "the single meaning flagged primary",
	models.FieldSecondaryMeanings:      "all other meanings, comma separated, in order",
	models.FieldPrimaryMeaningMnemonic: "the meaning mnemonic",
	models.FieldPrimaryReading:         "the single reading flagged primary",
	models.FieldPrimaryReadingMnemonic: "the reading mnemonic",
	models.FieldReferenceURL:           "the WaniKani page of the subject",
}

// NoteFieldsContract describes the ordered fields of each note type and how
// install fills them.
func NoteFieldsContract() string {
	var b strings.Builder
	b.WriteString("# wanikanji Note Fields\n\n")
	b.WriteString("Every cached subject becomes exactly one note. Field names are fixed; ")
	b.WriteString("the note types created by create-kanji-deck and create-vocabulary-deck declare them in this order.\n")

	for _, v := range models.Variants {
		fmt.Fprintf(&b, "\n## %s (tag `%s`)\n\n", v, v.Tag())
		for _, f := range v.Fields() {
			fmt.Fprintf(&b, "- `%s`: %s\n", f, describe(v, f))
		}
	}

	b.WriteString("\n## Rules\n\n")
	b.WriteString("1. A subject without characters, or without exactly one primary meaning, is rejected.\n")
	b.WriteString("2. Vocabulary must also have exactly one primary reading.\n")
	fmt.Fprintf(&b, "3. At most %d context sentences are kept; missing ones leave their fields unset.\n", models.MaxContextSentences)
	b.WriteString("4. A note Anki reports as a duplicate counts as already installed.\n")
	return b.String()
}

func describe(v models.Variant, field string) string {
	if field == models.FieldReadings {
		if v == models.VariantVocabulary {
			return "the non-primary readings, comma separated"
		}
		return "every reading, comma separated, in order"
	}
	if src, ok := fieldSources[field]; ok {
		return src
	}
	if strings.HasPrefix(field, "context-sentence-") {
		lang := "English"
		if strings.HasSuffix(field, "-ja") {
			lang = "Japanese"
		}
		return lang + " side of a context sentence"
	}
	return ""
}
