package safety

import (
	"context"
	"time"

	"tracker_server/core/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Content Filter Pipeline
// =============================================================================

// Checker classifies one movie by id.
type Checker interface {
	Check(ctx context.Context, id int64) Verdict
}

// Pipeline runs the adult gate and the configured checks over catalog items.
//
// Stage 0: Adult flag      → synchronous, no I/O
// Stage 1: Certification   → regional allow-list (strategy certification|both)
// Stage 2: Keyword         → unsafe keyword ids (strategy keyword|both)
//
// Stages run in order per item and stop at the first exclusion.
type Pipeline struct {
	checks        []Checker
	maxConcurrent int
	recorder      VerdictRecorder
	log           zerolog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecorder sets the verdict recorder.
func WithRecorder(r VerdictRecorder) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// NewPipeline builds a pipeline for cfg.Strategy. A nil checker disables its stage.
func NewPipeline(cfg *Config, certification, keywords Checker, opts ...PipelineOption) *Pipeline {
	cfg = cfg.normalized()
	p := &Pipeline{
		maxConcurrent: cfg.MaxConcurrent,
		recorder:      nopRecorder{},
		log:           zerolog.Nop(),
	}
	if cfg.Strategy.UsesCertification() && certification != nil {
		p.checks = append(p.checks, certification)
	}
	if cfg.Strategy.UsesKeywords() && keywords != nil {
		p.checks = append(p.checks, keywords)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate classifies a single item.
func (p *Pipeline) Evaluate(ctx context.Context, item *domain.CatalogItem) Verdict {
	v := p.evaluate(ctx, item)
	p.recorder.RecordVerdict(v)
	if !v.Allowed {
		p.log.Debug().
			Int64("movie_id", item.ID).
			Str("stage", string(v.Stage)).
			Str("reason", string(v.Reason)).
			Msg("catalog item excluded")
	}
	return v
}

func (p *Pipeline) evaluate(ctx context.Context, item *domain.CatalogItem) Verdict {
	if item.Adult {
		return deny(StageAdult, ReasonAdultFlag)
	}
	v := allow(StageAdult)
	for _, check := range p.checks {
		v = check.Check(ctx, item.ID)
		if !v.Allowed {
			return v
		}
	}
	return v
}

// Filter returns the items that pass every check, in input order.
// It returns only after every classification has settled.
func (p *Pipeline) Filter(ctx context.Context, items []domain.CatalogItem) []domain.CatalogItem {
	start := time.Now()

	candidates := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		if item.Adult {
			p.recorder.RecordVerdict(deny(StageAdult, ReasonAdultFlag))
			continue
		}
		candidates = append(candidates, item)
	}

	verdicts := make([]Verdict, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(p.maxConcurrent)
	for i := range candidates {
		i := i
		g.Go(func() error {
			verdicts[i] = p.Evaluate(ctx, &candidates[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.CatalogItem, 0, len(candidates))
	for i, item := range candidates {
		if verdicts[i].Allowed {
			out = append(out, item)
		}
	}

	p.log.Debug().
		Int("input", len(items)).
		Int("output", len(out)).
		Dur("took", time.Since(start)).
		Msg("filtered catalog items")
	return out
}
