package install

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/wanikanji/internal/checksum"
	"github.com/starford/wanikanji/internal/models"
)

// NoteAdder creates one note remotely. *ankiconnect.Client implements it.
type NoteAdder interface {
	AddNote(ctx context.Context, note models.Note) (int64, error)
}

// Recorder persists outcomes as they are produced.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Pipeline installs records one at a time.
type Pipeline struct {
	anki     NoteAdder
	policy   RetryPolicy
	recorder Recorder
	observer func(Outcome)
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithRecorder stores every outcome. Recorder errors are logged only.
func WithRecorder(r Recorder) Option {
	return func(pl *Pipeline) { pl.recorder = r }
}

// WithObserver calls fn after every record.
func WithObserver(fn func(Outcome)) Option {
	return func(pl *Pipeline) { pl.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// New creates a pipeline delivering through anki.
func New(anki NoteAdder, opts ...Option) *Pipeline {
	p := &Pipeline{
		anki:   anki,
		policy: DefaultRetryPolicy,
		logger: slog.Default(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InstallAll installs records in order and returns one outcome per record
// processed. A failed record never stops the loop; only a cancelled ctx
// does, in which case the outcomes so far are returned with ctx's error.
func (p *Pipeline) InstallAll(ctx context.Context, variant models.Variant, records []models.Record, modelName, deckName string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o := p.installOne(ctx, variant, rec, modelName, deckName)
		outcomes = append(outcomes, o)

		if p.recorder != nil {
			if err := p.recorder.Record(ctx, o); err != nil {
				p.logger.Error("install: record outcome",
					slog.Int("subject_id", o.SubjectID),
					slog.String("error", err.Error()))
			}
		}
		if p.observer != nil {
			p.observer(o)
		}
	}

	s := Summarize(outcomes)
	p.logger.Info("install: finished",
		slog.String("variant", string(variant)),
		slog.Int("installed", s.Installed),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.String("result", s.Result()))
	return outcomes, nil
}

func (p *Pipeline) installOne(ctx context.Context, variant models.Variant, rec models.Record, modelName, deckName string) Outcome {
	o := Outcome{Variant: variant, SubjectID: rec.SubjectID(), Label: rec.Label()}

	note, err := rec.ToNote(modelName, deckName)
	if err != nil {
		p.logger.Error("install: transform record",
			slog.Int("subject_id", o.SubjectID),
			slog.String("error", err.Error()))
		o.Status, o.Err = StatusFailed, err
		return o
	}
	if sum, err := checksum.OfJSON(note); err == nil {
		o.Checksum = sum
	}

	maxAttempts := p.policy.attempts()
	for attempt := 1; ; attempt++ {
		o.Attempts = attempt
		id, err := p.anki.AddNote(ctx, note)

		switch Classify(err) {
		case Succeed:
			o.Status, o.NoteID = StatusInstalled, id
			p.logger.Debug("install: note added",
				slog.Int("subject_id", o.SubjectID),
				slog.Int64("note_id", id))
			return o

		case TreatAsSuccess:
			o.Status = StatusSkippedAsDuplicate
			p.logger.Debug("install: duplicate skipped",
				slog.Int("subject_id", o.SubjectID),
				slog.String("label", o.Label))
			return o

		case Retry:
			if attempt >= maxAttempts {
				p.logger.Error("install: endpoint unreachable, giving up",
					slog.Int("subject_id", o.SubjectID),
					slog.Int("attempts", attempt),
					slog.String("error", err.Error()))
				o.Status, o.Err = StatusFailed, err
				return o
			}
			delay := p.policy.Delay(attempt)
			p.logger.Warn("install: endpoint unreachable, retrying",
				slog.Int("subject_id", o.SubjectID),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := p.sleep(ctx, delay); err != nil {
				o.Status, o.Err = StatusFailed, err
				return o
			}

		default:
			p.logger.Error("install: add note",
				slog.Int("subject_id", o.SubjectID),
				slog.String("label", o.Label),
				slog.String("error", err.Error()))
			o.Status, o.Err = StatusFailed, err
			return o
		}
	}
}
