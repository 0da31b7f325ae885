package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/domain"
	"github.com/convictionlabs/thesisrun/internal/ranking"
	"github.com/convictionlabs/thesisrun/internal/sizing"
	"github.com/convictionlabs/thesisrun/internal/telemetry"
)

// Discoverer turns a free-text thesis into candidate instruments.
type Discoverer interface {
	Discover(ctx context.Context, thesis string) ([]domain.CandidateInstrument, []domain.Gap)
}

// Enricher decorates candidates with live market data.
type Enricher interface {
	Enrich(ctx context.Context, candidates []domain.CandidateInstrument) ([]domain.EnrichedInstrument, []domain.Gap)
}

// RunStore persists completed runs. Implementations must tolerate being
// called with a failed context; persistence never affects run results.
type RunStore interface {
	SaveRun(ctx context.Context, result *RunResult) error
}

// RunOptions are the per-invocation inputs.
type RunOptions struct {
	Thesis    string
	Portfolio domain.Portfolio
	// Budget overrides portfolio-derived budget resolution when positive.
	Budget float64
	// TopN truncates the recommendation list when positive.
	TopN int
}

// RunResult is the full outcome of one pipeline invocation.
type RunResult struct {
	RunID           string                       `json:"run_id"`
	Thesis          string                       `json:"thesis"`
	Budget          float64                      `json:"budget"`
	Recommendations []domain.SizedRecommendation `json:"recommendations"`
	Gaps            []domain.Gap                 `json:"gaps,omitempty"`
	StartedAt       time.Time                    `json:"started_at"`
	CompletedAt     time.Time                    `json:"completed_at"`
}

// Pipeline runs the four stages in order: discovery, enrichment, ranking,
// sizing. Gaps from every stage accumulate into the result; only invalid
// input aborts.
type Pipeline struct {
	discoverer Discoverer
	enricher   Enricher
	sizer      *sizing.Sizer
	sizingCfg  sizing.Config
	store      RunStore
	metrics    *telemetry.MetricsRegistry
}

// NewPipeline wires the stages. store may be nil (no history); metrics may
// be nil (default registry).
func NewPipeline(d Discoverer, e Enricher, cfg sizing.Config, store RunStore, metrics *telemetry.MetricsRegistry) *Pipeline {
	if metrics == nil {
		metrics = telemetry.Default()
	}
	return &Pipeline{
		discoverer: d,
		enricher:   e,
		sizer:      sizing.NewSizer(cfg),
		sizingCfg:  cfg,
		store:      store,
		metrics:    metrics,
	}
}

// Run executes one thesis end to end.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if strings.TrimSpace(opts.Thesis) == "" {
		return nil, domain.ErrEmptyThesis
	}
	if err := domain.ValidatePortfolio(opts.Portfolio); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		Thesis:    opts.Thesis,
		StartedAt: time.Now().UTC(),
	}
	runLog := log.With().Str("run_id", result.RunID).Logger()
	p.metrics.ActiveRuns.Inc()
	defer p.metrics.ActiveRuns.Dec()

	start := time.Now()
	candidates, gaps := p.discoverer.Discover(ctx, opts.Thesis)
	p.metrics.ObserveStage("discovery", start, nil)
	p.metrics.CandidatesDiscovered.Observe(float64(len(candidates)))
	result.Gaps = append(result.Gaps, gaps...)
	runLog.Info().Int("candidates", len(candidates)).Int("gaps", len(gaps)).Msg("Discovery complete")

	start = time.Now()
	enriched, gaps := p.enricher.Enrich(ctx, candidates)
	p.metrics.ObserveStage("enrichment", start, nil)
	result.Gaps = append(result.Gaps, gaps...)

	start = time.Now()
	ranked := ranking.Rank(enriched, opts.Thesis)
	p.metrics.ObserveStage("ranking", start, nil)

	start = time.Now()
	result.Budget = sizing.ResolveBudget(p.sizingCfg, opts.Portfolio, opts.Budget)
	recs, gaps := p.sizer.Size(ranked, opts.Portfolio, opts.Budget, opts.Thesis)
	p.metrics.ObserveStage("sizing", start, nil)
	result.Gaps = append(result.Gaps, gaps...)

	if opts.TopN > 0 && len(recs) > opts.TopN {
		recs = recs[:opts.TopN]
	}
	result.Recommendations = recs
	result.CompletedAt = time.Now().UTC()
	p.metrics.TotalRuns.Inc()

	for _, g := range result.Gaps {
		p.metrics.GapsRecorded.WithLabelValues(string(g.Kind)).Inc()
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, result); err != nil {
			runLog.Warn().Err(err).Msg("Run history save failed")
		}
	}

	runLog.Info().
		Int("recommendations", len(recs)).
		Int("gaps", len(result.Gaps)).
		Float64("budget", result.Budget).
		Dur("elapsed", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Run complete")

	return result, nil
}
