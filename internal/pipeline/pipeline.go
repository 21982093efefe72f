// Package pipeline runs the ledger stages in order: load, convert, normalize,
// categorize, enrich, validate and write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledgerprep/internal/categorize"
	"github.com/cleared-dev/ledgerprep/internal/config"
	"github.com/cleared-dev/ledgerprep/internal/enrich"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/fx"
	"github.com/cleared-dev/ledgerprep/internal/importer"
	"github.com/cleared-dev/ledgerprep/internal/ledger"
	"github.com/cleared-dev/ledgerprep/internal/logger"
	"github.com/cleared-dev/ledgerprep/internal/metrics"
	"github.com/cleared-dev/ledgerprep/internal/model"
	"github.com/cleared-dev/ledgerprep/internal/normalize"
	"github.com/cleared-dev/ledgerprep/internal/runlog"
)

// Stage names as they appear in logs, the run log and metrics.
const (
	StageLoad       = "load"
	StageConvert    = "convert"
	StageNormalize  = "normalize"
	StageCategorize = "categorize"
	StageEnrich     = "enrich"
	StageValidate   = "validate"
	StageWrite      = "write"
)

// ErrInvalidLedger is returned when the finished ledger breaks an invariant.
var ErrInvalidLedger = errors.New("ledger failed validation")

// Pipeline turns the configured exports into the output ledger.
type Pipeline struct {
	cfg      *config.Config
	rules    *categorize.Ruleset
	loaders  *importer.Registry
	inputs   []importer.Input
	rates    fx.RateSource
	recorder metrics.Recorder
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder sends stage figures to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithRates replaces the configured rate file.
func WithRates(rs fx.RateSource) Option {
	return func(p *Pipeline) { p.rates = rs }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline from a validated config.
func New(cfg *config.Config, rules *categorize.Ruleset, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pipeline{
		cfg:      cfg,
		rules:    rules,
		loaders:  importer.NewRegistry(),
		rates:    fx.RateFile{Path: cfg.FX.RatesPath, DateColumn: cfg.FX.DateColumn},
		recorder: metrics.NoOp{},
		now:      time.Now,
	}
	for _, s := range cfg.Sources {
		l, err := importer.NewLoader(s.Format, s.Name, s.Currency, s.HeaderRow, importer.DefaultSignRules())
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.Name, err)
		}
		p.loaders.Register(l)
		p.inputs = append(p.inputs, importer.Input{Source: s.Name, Path: s.Path})
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Result describes a finished run.
type Result struct {
	RunID   string
	Records []model.Record
	Stages  []runlog.Entry
	FX      fx.Stats
}

// Run executes every stage and writes the ledger to cfg.Output. Stage
// results are appended to the run log even when the run fails.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := logger.FromContext(ctx).With().Str("run_id", res.RunID).Logger()
	log.Info().Strs("sources", p.loaders.Sources()).Msg("run started")

	err := p.run(ctx, log, res)
	p.recorder.RecordRun(err == nil, p.now())

	if p.cfg.RunLog != "" {
		if lerr := runlog.Append(p.cfg.RunLog, res.Stages); lerr != nil {
			log.Warn().Err(lerr).Msg("run log not written")
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return res, err
	}
	log.Info().Int("records", len(res.Records)).Str("output", p.cfg.Output).Msg("run finished")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, log zerolog.Logger, res *Result) error {
	f, err := p.stage(ctx, log, res, StageLoad, frame.New(), func(_ *frame.Frame, e *runlog.Entry) (*frame.Frame, error) {
		out, read, err := p.loaders.LoadAll(p.inputs)
		e.RowsIn = read
		e.Details = fmt.Sprintf("%d files", len(p.inputs))
		return out, err
	})
	if err != nil {
		return err
	}

	f, err = p.stage(ctx, log, res, StageConvert, f, func(in *frame.Frame, e *runlog.Entry) (*frame.Frame, error) {
		c := &fx.Converter{Base: p.cfg.BaseCurrency, Foreign: p.cfg.ForeignSources(), Rates: p.rates}
		out, stats, err := c.ConvertToBase(in)
		res.FX = stats
		p.recorder.RecordConversion(stats.Converted, stats.Missing)
		e.Details = fmt.Sprintf("%d converted, %d without rate", stats.Converted, stats.Missing)
		return out, err
	})
	if err != nil {
		return err
	}

	f, err = p.stage(ctx, log, res, StageNormalize, f, func(in *frame.Frame, _ *runlog.Entry) (*frame.Frame, error) {
		return normalize.Normalize(in)
	})
	if err != nil {
		return err
	}

	f, err = p.stage(ctx, log, res, StageCategorize, f, func(in *frame.Frame, e *runlog.Entry) (*frame.Frame, error) {
		out, err := categorize.Categorize(in, p.rules)
		if err != nil {
			return nil, err
		}
		counts := countCategories(out)
		for cat, n := range counts {
			p.recorder.RecordCategory(cat, n)
		}
		e.Details = fmt.Sprintf("%d categories", len(counts))
		return out, nil
	})
	if err != nil {
		return err
	}

	f, err = p.stage(ctx, log, res, StageEnrich, f, func(in *frame.Frame, _ *runlog.Entry) (*frame.Frame, error) {
		return enrich.Enrich(in, p.cfg.BaseCurrency, p.rules.Fallback())
	})
	if err != nil {
		return err
	}

	f, err = p.stage(ctx, log, res, StageValidate, f, func(in *frame.Frame, _ *runlog.Entry) (*frame.Frame, error) {
		recs, err := ledger.FromFrame(in)
		if err != nil {
			return nil, err
		}
		problems := ledger.Validate(recs, ledger.Options{BaseCurrency: p.cfg.BaseCurrency, Vocabulary: p.rules.Vocabulary()})
		for _, v := range problems {
			log.Error().Str("record_id", v.RecordID).Int("invariant", v.Invariant).Msg(v.Description)
		}
		if len(problems) > 0 {
			return nil, fmt.Errorf("%w: %d violations, first: %v", ErrInvalidLedger, len(problems), problems[0])
		}
		res.Records = recs
		return in, nil
	})
	if err != nil {
		return err
	}

	_, err = p.stage(ctx, log, res, StageWrite, f, func(in *frame.Frame, e *runlog.Entry) (*frame.Frame, error) {
		e.Details = p.cfg.Output
		return in, ledger.WriteFile(p.cfg.Output, res.Records)
	})
	return err
}

// stageFunc transforms in. It may fill in the entry's details, and its
// RowsIn when the input is not a frame.
type stageFunc func(in *frame.Frame, e *runlog.Entry) (*frame.Frame, error)

// stage runs fn, then logs and records its row counts.
func (p *Pipeline) stage(ctx context.Context, log zerolog.Logger, res *Result, name string, in *frame.Frame, fn stageFunc) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := p.now()
	entry := runlog.Entry{Timestamp: start.UTC(), RunID: res.RunID, Stage: name, RowsIn: in.Len()}
	out, err := fn(in, &entry)
	elapsed := p.now().Sub(start)

	if err != nil {
		entry.Details = err.Error()
		res.Stages = append(res.Stages, entry)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	entry.RowsOut = out.Len()
	res.Stages = append(res.Stages, entry)

	log.Info().
		Str("stage", name).
		Int("rows_in", entry.RowsIn).
		Int("rows_out", entry.RowsOut).
		Int("dropped", entry.Dropped()).
		Dur("elapsed", elapsed).
		Str("details", entry.Details).
		Msg("stage finished")
	p.recorder.RecordStage(name, entry.RowsIn, entry.RowsOut, elapsed)
	return out, nil
}

func countCategories(f *frame.Frame) map[string]int {
	counts := make(map[string]int)
	for i := 0; i < f.Len(); i++ {
		counts[f.Row(i).String(model.ColCategory)]++
	}
	return counts
}
