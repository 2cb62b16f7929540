package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/future"
)

// DefaultTimeout bounds the live call before the fallback is served.
const DefaultTimeout = 12 * time.Second

// Source says where a fetched Data came from.
type Source string

const (
	// SourceLive means every field came from the live response.
	SourceLive Source = "live"
	// SourcePartial means the live response was used but some fields were
	// filled from the embedded dataset.
	SourcePartial Source = "partial"
	// SourceFallback means the live call failed or timed out and the embedded
	// dataset was served unchanged.
	SourceFallback Source = "fallback"
)

// Outcome describes how a fetch went. Data is always usable regardless of
// the outcome.
type Outcome struct {
	Source    Source
	Kind      ai.Kind // failure kind when Source is SourceFallback
	Err       error
	Fallbacks []string // fields taken from the embedded dataset
	Citations int      // grounding citations kept after filtering
	Duration  time.Duration
}

// FetcherConfig tunes the race between the live call and the timer.
type FetcherConfig struct {
	// Timeout is how long the live call may take. Default: 12s.
	Timeout time.Duration

	// CancelOnTimeout cancels the live call once the timer wins. When false
	// the call keeps running detached and its result is discarded.
	CancelOnTimeout bool
}

// Fetcher produces the page dataset.
type Fetcher struct {
	gen    ai.TextGenerator
	cfg    FetcherConfig
	logger *slog.Logger

	group singleflight.Group
}

// NewFetcher constructs a Fetcher around a text generator.
func NewFetcher(gen ai.TextGenerator, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Fetcher{gen: gen, cfg: cfg, logger: logger}
}

// Fetch returns the dataset. It never fails: any error is absorbed into the
// fallback path.
func (f *Fetcher) Fetch(ctx context.Context) Data {
	d, _ := f.FetchWithOutcome(ctx)
	return d
}

type fetchResult struct {
	data    Data
	outcome Outcome
}

// FetchWithOutcome is Fetch plus a description of where the data came from.
// Concurrent callers share one in-flight provider call.
func (f *Fetcher) FetchWithOutcome(ctx context.Context) (Data, Outcome) {
	v, _, _ := f.group.Do("report", func() (any, error) {
		d, o := f.fetch(context.WithoutCancel(ctx))
		return fetchResult{data: d, outcome: o}, nil
	})
	res := v.(fetchResult)
	return res.data.Clone(), res.outcome
}

type liveResult struct {
	data      Data
	fallbacks []string
	citations int
}

func (f *Fetcher) fetch(ctx context.Context) (Data, Outcome) {
	start := time.Now()

	call := future.Go(ctx, f.live)
	res, err := call.Await(ctx, f.cfg.Timeout)
	if err != nil {
		if errors.Is(err, future.ErrTimeout) {
			if f.cfg.CancelOnTimeout {
				call.Cancel()
			}
			err = &ai.Error{Kind: ai.KindTimeout, Op: "fetch report", Err: err}
		}

		kind := ai.KindOf(err)
		f.logger.Warn("report: live fetch failed, using fallback data",
			"kind", kind.String(),
			"error", err,
			"duration", time.Since(start),
		)
		return Fallback(), Outcome{
			Source:   SourceFallback,
			Kind:     kind,
			Err:      err,
			Duration: time.Since(start),
		}
	}

	out := Outcome{
		Source:    SourceLive,
		Fallbacks: res.fallbacks,
		Citations: res.citations,
		Duration:  time.Since(start),
	}
	if len(res.fallbacks) > 0 {
		out.Source = SourcePartial
		f.logger.Info("report: live data merged with fallback fields", "fields", res.fallbacks)
	}
	return res.data, out
}

// live performs the provider call and turns its answer into Data.
func (f *Fetcher) live(ctx context.Context) (liveResult, error) {
	resp, err := f.gen.GenerateGroundedText(ctx, DataPrompt)
	if err != nil {
		return liveResult{}, err
	}

	p, err := parseResponse(resp.Text)
	if err != nil {
		return liveResult{}, err
	}
	// Grounding citations alone do not make the answer live.
	if p.empty() {
		return liveResult{}, &ai.Error{Kind: ai.KindParse, Op: "parse report", Err: ErrNoUsableFields}
	}

	citations := filterCitations(resp.Sources)
	data, fallbacks := merge(p, citations, Fallback())
	return liveResult{data: data, fallbacks: fallbacks, citations: len(citations)}, nil
}
