package ankiconnect

import (
	"context"

	"github.com/starford/wanikanji/internal/models"
)

// media fields are sent empty so AnkiConnect does not try to download anything.
type notePayload struct {
	models.Note
	Audio   []any `json:"audio"`
	Video   []any `json:"video"`
	Picture []any `json:"picture"`
}

// AddNote creates a note and returns its id.
func (c *Client) AddNote(ctx context.Context, note models.Note) (int64, error) {
	params := map[string]any{
		"note": notePayload{Note: note, Audio: []any{}, Video: []any{}, Picture: []any{}},
	}
	var id int64
	if err := c.call(ctx, "addNote", params, &id, false); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateDeck creates deck if it does not exist and returns its id.
func (c *Client) CreateDeck(ctx context.Context, deck string) (int64, error) {
	var id int64
	if err := c.call(ctx, "createDeck", map[string]any{"deck": deck}, &id, false); err != nil {
		return 0, err
	}
	return id, nil
}

// ModelInfo is the subset of the createModel reply we keep.
type ModelInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type cardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// CreateModel creates the note type nt under name.
func (c *Client) CreateModel(ctx context.Context, name string, nt NoteType) (ModelInfo, error) {
	templates := make([]cardTemplate, 0, len(nt.Templates))
	for _, t := range nt.Templates {
		templates = append(templates, cardTemplate(t))
	}
	params := map[string]any{
		"modelName":     name,
		"inOrderFields": nt.Fields,
		"css":           nt.CSS,
		"isCloze":       false,
		"cardTemplates": templates,
	}
	var info ModelInfo
	if err := c.call(ctx, "createModel", params, &info, false); err != nil {
		return ModelInfo{}, err
	}
	return info, nil
}

// UpdateModelStyling replaces the CSS of the note type name.
func (c *Client) UpdateModelStyling(ctx context.Context, name, css string) error {
	params := map[string]any{
		"model": map[string]any{"name": name, "css": css},
	}
	return c.call(ctx, "updateModelStyling", params, nil, true)
}

type templateSides struct {
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// UpdateModelTemplates replaces the card templates of the note type name.
func (c *Client) UpdateModelTemplates(ctx context.Context, name string, templates []CardTemplate) error {
	byName := make(map[string]templateSides, len(templates))
	for _, t := range templates {
		byName[t.Name] = templateSides{Front: t.Front, Back: t.Back}
	}
	params := map[string]any{
		"model": map[string]any{"name": name, "templates": byName},
	}
	return c.call(ctx, "updateModelTemplates", params, nil, true)
}

// Version returns the AnkiConnect protocol version. It doubles as a
// reachability probe.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.call(ctx, "version", nil, &v, false); err != nil {
		return 0, err
	}
	return v, nil
}
