// Package analysis builds volume profile reports: it fetches candles, bins them and derives landmarks.
package analysis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/collector"
	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
	"github.com/vadiminshakov/volprofile/internal/services/profile"
	"github.com/vadiminshakov/volprofile/internal/services/valuearea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mode selects how bin edges are built from the price range.
type Mode string

const (
	// ModeFixedStep splits the range into Resolution equal steps.
	ModeFixedStep Mode = "fixed_step"
	// ModeFixedCount spreads BinCount bins evenly over the range.
	ModeFixedCount Mode = "fixed_count"
)

const (
	DefaultResolution = 500
	DefaultBinCount   = 59
)

// Query describes one profile computation.
type Query struct {
	Symbol         domain.Symbol
	Interval       domain.Interval
	Start          time.Time
	End            time.Time
	Mode           Mode
	Resolution     int
	BinCount       int
	TargetFraction float64
	MovingAverage  *indicators.MovingAverage
}

// QueryForPeriod returns a query covering the last days up to now.
func QueryForPeriod(symbol domain.Symbol, interval domain.Interval, now time.Time, days int) Query {
	return Query{
		Symbol:   symbol,
		Interval: interval,
		Start:    now.Add(-time.Duration(days) * 24 * time.Hour),
		End:      now,
	}
}

// Report is the outcome of a single analysis.
type Report struct {
	Symbol    domain.Symbol       `json:"symbol"`
	Interval  domain.Interval     `json:"interval"`
	Source    string              `json:"source"`
	Start     time.Time           `json:"start"`
	End       time.Time           `json:"end"`
	Candles   []domain.Candle     `json:"-"`
	Profile   *profile.Profile    `json:"profile"`
	Landmarks domain.Landmarks    `json:"landmarks"`
	Overlay   *indicators.Overlay `json:"-"`
}

// Analyzer runs the fetch, bin and extract pipeline.
type Analyzer struct {
	source    collector.DataSource
	extractor *valuearea.Extractor
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil extractor means the default value area strategy.
func NewAnalyzer(source collector.DataSource, extractor *valuearea.Extractor, logger *zap.Logger) *Analyzer {
	if extractor == nil {
		extractor = valuearea.NewExtractor(nil)
	}
	return &Analyzer{
		source:    source,
		extractor: extractor,
		logger:    logger,
	}
}

// Analyze computes the profile and landmarks for the query.
func (a *Analyzer) Analyze(ctx context.Context, q Query) (*Report, error) {
	q = withDefaults(q)
	if q.MovingAverage != nil {
		if err := q.MovingAverage.Validate(); err != nil {
			return nil, err
		}
	}

	candles, err := a.source.Fetch(ctx, q.Symbol, q.Interval, q.Start, q.End)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s %s", q.Symbol, q.Interval)
	}

	low, high, err := profile.PriceRange(candles)
	if err != nil {
		return nil, err
	}

	scheme, err := buildScheme(q, low, high)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", q.Symbol, q.Interval)
	}

	prof, err := profile.ComputeProfile(candles, scheme)
	if err != nil {
		return nil, err
	}
	if prof.DroppedCandles > 0 {
		a.logger.Warn("candles outside profile range",
			zap.String("symbol", q.Symbol.String()),
			zap.String("interval", q.Interval.String()),
			zap.Int("dropped", prof.DroppedCandles),
			zap.Float64("dropped_volume", prof.DroppedVolume))
	}

	landmarks, err := a.extractor.Extract(prof.Volumes, prof.Edges, q.TargetFraction)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", q.Symbol, q.Interval)
	}

	report := &Report{
		Symbol:    q.Symbol,
		Interval:  q.Interval,
		Source:    a.source.Name(),
		Start:     q.Start,
		End:       q.End,
		Candles:   candles,
		Profile:   prof,
		Landmarks: landmarks,
	}

	if q.MovingAverage != nil {
		overlay, err := indicators.Compute(candles, *q.MovingAverage)
		if err != nil {
			return nil, err
		}
		report.Overlay = overlay
	}

	a.logger.Debug("profile computed",
		zap.String("symbol", q.Symbol.String()),
		zap.String("interval", q.Interval.String()),
		zap.Int("candles", len(candles)),
		zap.Float64("poc", landmarks.PointOfControlPrice))

	return report, nil
}

// AnalyzeTimeframes runs Analyze for every interval concurrently and returns reports in the order of intervals.
// The first failure cancels the remaining fetches.
func (a *Analyzer) AnalyzeTimeframes(ctx context.Context, q Query, intervals []domain.Interval) ([]*Report, error) {
	reports := make([]*Report, len(intervals))
	g, gctx := errgroup.WithContext(ctx)

	for i, interval := range intervals {
		tq := q
		tq.Interval = interval
		g.Go(func() error {
			report, err := a.Analyze(gctx, tq)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

func withDefaults(q Query) Query {
	q.Symbol = domain.Symbol(q.Symbol.String())
	if q.Mode == "" {
		q.Mode = ModeFixedCount
	}
	if q.Resolution == 0 {
		q.Resolution = DefaultResolution
	}
	if q.BinCount == 0 {
		q.BinCount = DefaultBinCount
	}
	if q.TargetFraction == 0 {
		q.TargetFraction = valuearea.DefaultTargetFraction
	}
	return q
}

func buildScheme(q Query, low, high float64) (*profile.Scheme, error) {
	switch q.Mode {
	case ModeFixedStep:
		return profile.NewFixedStepScheme(low, high, q.Resolution)
	case ModeFixedCount:
		return profile.NewFixedCountScheme(low, high, q.BinCount)
	default:
		return nil, errors.Wrapf(domain.ErrInvalidScheme, "unknown binning mode %q", q.Mode)
	}
}
