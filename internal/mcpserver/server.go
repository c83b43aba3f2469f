// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the subject cache and install history over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/catalog"
	"github.com/starford/wanikanji/internal/models"
)

// NoteFieldsURI is the URI of the note field contract resource.
const NoteFieldsURI = "wanikanji://note-fields"

// NoteTarget names the note type and deck used when previewing a variant.
type NoteTarget struct {
	Model string
	Deck  string
}

// Server wraps the MCP server with wanikanji tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *catalog.Service
	targets map[models.Variant]NoteTarget
}

// New creates a new MCP server with all tools registered.
func New(svc *catalog.Service, targets map[models.Variant]NoteTarget, version string) *Server {
	s := &Server{svc: svc, targets: targets}

	s.mcp = server.NewMCPServer(
		"wanikanji",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List the cached WaniKani collections with size, checksum and update time."),
	), s.listSnapshots)

	s.mcp.AddTool(mcp.NewTool("lookup_subject",
		mcp.WithDescription("Find a cached subject by characters, slug or subject id and report its install state."),
		mcp.WithString("variant", mcp.Required(), mcp.Description("kanji or vocabulary")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Characters, slug or numeric subject id")),
	), s.lookupSubject)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Show the Anki note a cached subject would be installed as, without installing it."),
		mcp.WithString("variant", mcp.Required(), mcp.Description("kanji or vocabulary")),
		mcp.WithNumber("subject_id", mcp.Required(), mcp.Description("WaniKani subject id")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("install_history",
		mcp.WithDescription("Recent install outcomes, newest first, with per-status totals."),
		mcp.WithString("variant", mcp.Description("kanji or vocabulary; empty for both")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 20)")),
	), s.installHistory)

	s.mcp.AddTool(mcp.NewTool("get_note_fields",
		mcp.WithDescription("Returns the field contract of the kanji and vocabulary note types."),
	), s.getNoteFields)

	s.mcp.AddResource(
		mcp.NewResource(NoteFieldsURI, "Note Field Contract",
			mcp.WithResourceDescription("Ordered note fields per variant and how each is filled."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFieldsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listSnapshots(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.svc.Snapshots(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no snapshots; run query-kanji or query-vocabulary first"), nil
	}
	return jsonResult(metas)
}

func (s *Server) lookupSubject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	variant, err := requireVariant(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Lookup(ctx, variant, query)
	if err != nil {
		return lookupError(err, variant, query), nil
	}
	return jsonResult(d)
}

func (s *Server) previewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	variant, err := requireVariant(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireInt("subject_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := s.targets[variant]
	note, err := s.svc.PreviewNote(ctx, variant, id, t.Model, t.Deck)
	if err != nil {
		return lookupError(err, variant, fmt.Sprint(id)), nil
	}
	return jsonResult(note)
}

func (s *Server) installHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	variant := req.GetString("variant", "")
	if variant != "" {
		if _, err := models.ParseVariant(variant); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	entries, err := s.svc.History(ctx, variant, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	totals, err := s.svc.Totals(ctx, variant)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"totals": totals, "installs": entries})
}

func (s *Server) getNoteFields(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFieldsContract()), nil
}

func (s *Server) readNoteFieldsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFieldsURI,
			MIMEType: "text/markdown",
			Text:     NoteFieldsContract(),
		},
	}, nil
}

func requireVariant(req mcp.CallToolRequest) (models.Variant, error) {
	raw, err := req.RequireString("variant")
	if err != nil {
		return "", err
	}
	return models.ParseVariant(raw)
}

func lookupError(err error, variant models.Variant, ref string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s %s", variant, ref))
	case errors.Is(err, apperr.ErrCacheMissing):
		return mcp.NewToolResultError(fmt.Sprintf("%s has not been fetched; run query-%s first", variant, variant))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
