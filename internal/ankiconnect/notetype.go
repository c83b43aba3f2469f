package ankiconnect

import (
	"embed"
	"fmt"

	"github.com/starford/wanikanji/internal/models"
)

// DefaultTemplateName is the card template name used when none is configured.
const DefaultTemplateName = "Recognition"

//go:embed templates/*
var templateFS embed.FS

// CardTemplate is one card of a note type.
type CardTemplate struct {
	Name  string
	Front string
	Back  string
}

// NoteType is the definition of a note type: fields in order, styling and
// card templates.
type NoteType struct {
	Fields    []string
	CSS       string
	Templates []CardTemplate
}

// NoteTypeFor returns the note type of variant with a single card
// template named templateName.
func NoteTypeFor(variant models.Variant, templateName string) (NoteType, error) {
	if templateName == "" {
		templateName = DefaultTemplateName
	}
	css, err := templateFS.ReadFile("templates/style.css")
	if err != nil {
		return NoteType{}, fmt.Errorf("ankiconnect: read styling: %w", err)
	}
	front, err := templateFS.ReadFile(fmt.Sprintf("templates/%s_front.html", variant))
	if err != nil {
		return NoteType{}, fmt.Errorf("ankiconnect: read %s template: %w", variant, err)
	}
	back, err := templateFS.ReadFile(fmt.Sprintf("templates/%s_back.html", variant))
	if err != nil {
		return NoteType{}, fmt.Errorf("ankiconnect: read %s template: %w", variant, err)
	}
	return NoteType{
		Fields: variant.Fields(),
		CSS:    string(css),
		Templates: []CardTemplate{
			{Name: templateName, Front: string(front), Back: string(back)},
		},
	}, nil
}
