package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/starford/wanikanji/internal/ankiconnect"
	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/catalog"
	"github.com/starford/wanikanji/internal/install"
	"github.com/starford/wanikanji/internal/mcpserver"
	"github.com/starford/wanikanji/internal/models"
	"github.com/starford/wanikanji/internal/snapshot"
)

// ErrRecordsFailed is returned by Install when at least one record ended
// in the failed state. Every record was still attempted.
var ErrRecordsFailed = errors.New("some records failed to install")

// Query fetches every subject of variant and replaces its snapshot.
func (a *App) Query(ctx context.Context, variant models.Variant) error {
	store, err := snapshot.NewFS(a.config.Cache.Dir)
	if err != nil {
		return err
	}

	client := a.wanikaniClient()
	var (
		records any
		count   int
	)
	switch variant {
	case models.VariantKanji:
		kanji, err := client.ListKanji(ctx)
		if err != nil {
			return fmt.Errorf("query kanji: %w", err)
		}
		records, count = kanji, len(kanji)
	case models.VariantVocabulary:
		vocabulary, err := client.ListVocabulary(ctx)
		if err != nil {
			return fmt.Errorf("query vocabulary: %w", err)
		}
		records, count = vocabulary, len(vocabulary)
	default:
		return fmt.Errorf("query: unknown variant %q", variant)
	}

	if err := store.Insert(string(variant), records); err != nil {
		return fmt.Errorf("store %s snapshot: %w", variant, err)
	}

	path, _ := store.Path(string(variant))
	a.logger.Info("query: snapshot written",
		slog.String("variant", string(variant)),
		slog.Int("subjects", count),
		slog.String("path", path))
	fmt.Fprintf(a.out, "%s: cached %d subjects in %s\n", variant, count, path)
	return nil
}

// Install sends every cached record of variant to Anki. A missing snapshot
// is a warning, not an error. The run fails with ErrRecordsFailed when any
// record failed. Outcomes go to the ledger when it can be opened.
func (a *App) Install(ctx context.Context, variant models.Variant) error {
	store, err := snapshot.NewFS(a.config.Cache.Dir)
	if errors.Is(err, snapshot.ErrCacheDirectoryNotFound) {
		a.warnCacheMissing(variant, err)
		return nil
	}
	if err != nil {
		return err
	}

	records, ok, err := a.loadVariant(store, variant)
	if err != nil || !ok {
		return err
	}

	var recorder install.Recorder
	db, err := a.openLedger()
	if err != nil {
		a.logger.Warn("install: ledger unavailable, outcomes will not be recorded",
			slog.String("ledger_path", a.config.Ledger.Path),
			slog.String("error", err.Error()))
	} else {
		defer db.Close()
		recorder = db
	}

	outcomes, err := a.runPipeline(ctx, variant, records, recorder, nil)
	if err != nil {
		return err
	}

	s := install.Summarize(outcomes)
	fmt.Fprintf(a.out, "%s: %d installed, %d skipped as duplicate, %d failed of %d (%s)\n",
		variant, s.Installed, s.Skipped, s.Failed, s.Total, s.Result())
	for _, o := range outcomes {
		if o.Status == install.StatusFailed {
			fmt.Fprintf(a.out, "  failed %d %s: %v\n", o.SubjectID, o.Label, o.Err)
		}
	}
	if s.Failed > 0 {
		return fmt.Errorf("install %s: %w (%d of %d)", variant, ErrRecordsFailed, s.Failed, s.Total)
	}
	return nil
}

// loadVariant reads the snapshot of variant. It reports false, after a
// warning, when the snapshot has never been fetched.
func (a *App) loadVariant(store snapshot.Store, variant models.Variant) ([]models.Record, bool, error) {
	records, err := install.LoadRecords(store, variant)
	if errors.Is(err, apperr.ErrCacheMissing) {
		a.warnCacheMissing(variant, err)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s snapshot: %w", variant, err)
	}
	return records, true, nil
}

// runPipeline installs records with the configured retry policy. recorder
// and observer may be nil.
func (a *App) runPipeline(ctx context.Context, variant models.Variant, records []models.Record, recorder install.Recorder, observer func(install.Outcome)) ([]install.Outcome, error) {
	notes := a.config.Notes(variant)
	opts := []install.Option{
		install.WithRetryPolicy(a.config.AnkiConnect.Retry.Policy()),
		install.WithLogger(a.logger),
	}
	if recorder != nil {
		opts = append(opts, install.WithRecorder(recorder))
	}
	if observer != nil {
		opts = append(opts, install.WithObserver(observer))
	}

	a.logger.Info("install: starting",
		slog.String("variant", string(variant)),
		slog.Int("records", len(records)),
		slog.String("deck", notes.DeckName),
		slog.String("model", notes.ModelName))

	pipeline := install.New(a.ankiClient(), opts...)
	return pipeline.InstallAll(ctx, variant, records, notes.ModelName, notes.DeckName)
}

func (a *App) warnCacheMissing(variant models.Variant, err error) {
	a.logger.Warn("install: nothing cached, run query-"+string(variant)+" first",
		slog.String("variant", string(variant)),
		slog.String("cache_dir", a.config.Cache.Dir),
		slog.String("error", err.Error()))
}

// CreateDeck creates the note type and the deck of variant. An existing
// note type is kept as is.
func (a *App) CreateDeck(ctx context.Context, variant models.Variant) error {
	notes := a.config.Notes(variant)
	nt, err := ankiconnect.NoteTypeFor(variant, notes.TemplateName)
	if err != nil {
		return err
	}

	client := a.ankiClient()
	model, err := client.CreateModel(ctx, notes.ModelName, nt)
	switch {
	case ankiconnect.IsModelExists(err):
		a.logger.Warn("create deck: note type already exists", slog.String("model", notes.ModelName))
	case err != nil:
		return fmt.Errorf("create note type %q: %w", notes.ModelName, err)
	default:
		fmt.Fprintf(a.out, "created note type %q (%d)\n", model.Name, model.ID)
	}

	deckID, err := client.CreateDeck(ctx, notes.DeckName)
	if err != nil {
		return fmt.Errorf("create deck %q: %w", notes.DeckName, err)
	}
	fmt.Fprintf(a.out, "deck %q ready (%d)\n", notes.DeckName, deckID)
	return nil
}

// UpdateModelStyling pushes the embedded stylesheet to the note type of
// variant.
func (a *App) UpdateModelStyling(ctx context.Context, variant models.Variant) error {
	notes := a.config.Notes(variant)
	nt, err := ankiconnect.NoteTypeFor(variant, notes.TemplateName)
	if err != nil {
		return err
	}
	if err := a.ankiClient().UpdateModelStyling(ctx, notes.ModelName, nt.CSS); err != nil {
		return fmt.Errorf("update styling of %q: %w", notes.ModelName, err)
	}
	fmt.Fprintf(a.out, "updated styling of %q\n", notes.ModelName)
	return nil
}

// UpdateModelTemplates pushes the embedded card templates to the note type
// of variant.
func (a *App) UpdateModelTemplates(ctx context.Context, variant models.Variant) error {
	notes := a.config.Notes(variant)
	nt, err := ankiconnect.NoteTypeFor(variant, notes.TemplateName)
	if err != nil {
		return err
	}
	if err := a.ankiClient().UpdateModelTemplates(ctx, notes.ModelName, nt.Templates); err != nil {
		return fmt.Errorf("update templates of %q: %w", notes.ModelName, err)
	}
	fmt.Fprintf(a.out, "updated templates of %q\n", notes.ModelName)
	return nil
}

// Status prints snapshot and install totals per variant, and whether
// AnkiConnect answers.
func (a *App) Status(ctx context.Context) error {
	var store snapshot.Store
	fs, err := snapshot.NewFS(a.config.Cache.Dir)
	switch {
	case errors.Is(err, snapshot.ErrCacheDirectoryNotFound):
		a.logger.Warn("status: cache directory missing", slog.String("cache_dir", a.config.Cache.Dir))
		store = snapshot.NewMemory()
	case err != nil:
		return err
	default:
		store = fs
	}

	db, err := a.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := catalog.NewService(store, db).Status(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tSNAPSHOT\tSIZE\tUPDATED\tINSTALLED\tSKIPPED\tFAILED")
	for _, st := range statuses {
		snap, size, updated := "missing", "-", "-"
		if st.Snapshot != nil {
			snap = st.Snapshot.Checksum
			if len(snap) > 12 {
				snap = snap[:12]
			}
			size = fmt.Sprint(st.Snapshot.Size)
			updated = st.Snapshot.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			st.Variant, snap, size, updated, st.Totals.Installed, st.Totals.Skipped, st.Totals.Failed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if v, err := a.ankiClient().Version(ctx); err != nil {
		fmt.Fprintf(a.out, "anki-connect: unreachable at %s (%v)\n", a.config.AnkiConnect.Endpoint, err)
	} else {
		fmt.Fprintf(a.out, "anki-connect: version %d at %s\n", v, a.config.AnkiConnect.Endpoint)
	}
	return nil
}

// MCP serves the read-only MCP tools on stdio until the client disconnects.
func (a *App) MCP(_ context.Context) error {
	store, err := snapshot.NewFS(a.config.Cache.Dir)
	if err != nil {
		return err
	}
	db, err := a.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	targets := make(map[models.Variant]mcpserver.NoteTarget, len(models.Variants))
	for _, v := range models.Variants {
		n := a.config.Notes(v)
		targets[v] = mcpserver.NoteTarget{Model: n.ModelName, Deck: n.DeckName}
	}

	a.logger.Info("mcp: serving on stdio", slog.String("cache_dir", a.config.Cache.Dir))
	return mcpserver.New(catalog.NewService(store, db), targets, a.version).ServeStdio()
}
