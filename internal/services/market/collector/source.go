// Package collector fetches OHLCV candles from exchanges and market data providers.
package collector

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/pkg/retrier"
)

// DataSource returns candles for a symbol ordered by open time.
// It fails with domain.ErrDataUnavailable when the upstream has nothing for the requested range.
type DataSource interface {
	Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error)
	Name() string
}

// Router picks a source by symbol: stablecoin-quoted pairs go to the crypto source, everything else to the fallback.
type Router struct {
	crypto   DataSource
	fallback DataSource
}

// NewRouter creates a symbol based source router.
func NewRouter(crypto, fallback DataSource) *Router {
	return &Router{crypto: crypto, fallback: fallback}
}

// Name returns the source identifier.
func (r *Router) Name() string { return "auto" }

// Fetch delegates to the source serving the symbol.
func (r *Router) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	return r.Route(symbol).Fetch(ctx, symbol, interval, start, end)
}

// Route returns the source serving the symbol.
func (r *Router) Route(symbol domain.Symbol) DataSource {
	if symbol.IsCrypto() {
		return r.crypto
	}
	return r.fallback
}

// RetryingSource retries transient fetch failures. Missing data is returned immediately.
type RetryingSource struct {
	source  DataSource
	retrier *retrier.Retrier
}

// NewRetryingSource wraps source with retries.
func NewRetryingSource(source DataSource, opts ...retrier.Option) *RetryingSource {
	opts = append(opts, retrier.WithRetryIf(func(err error) bool {
		return !errors.Is(err, domain.ErrDataUnavailable) && !errors.Is(err, context.Canceled)
	}))
	return &RetryingSource{source: source, retrier: retrier.New(opts...)}
}

// Name returns the wrapped source identifier.
func (s *RetryingSource) Name() string { return s.source.Name() }

// Fetch fetches candles with retries.
func (s *RetryingSource) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	return retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]domain.Candle, error) {
		return s.source.Fetch(ctx, symbol, interval, start, end)
	})
}

func validateRange(interval domain.Interval, start, end time.Time) error {
	if !interval.IsValid() {
		return errors.Errorf("unsupported interval %q", interval)
	}
	if !start.Before(end) {
		return errors.Errorf("invalid time range: start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// parseCandle converts exchange string fields. Decimal parsing keeps exchange formatting quirks
// (exponents, trailing zeros) out of the float conversion.
func parseCandle(openTime time.Time, index int, open, high, low, close, volume string) (domain.Candle, error) {
	fields := [5]string{open, high, low, close, volume}
	names := [5]string{"open", "high", "low", "close", "volume"}
	var values [5]float64
	for i, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Candle{}, errors.Wrapf(err, "failed to parse %s at index %d", names[i], index)
		}
		values[i] = d.InexactFloat64()
	}

	return domain.Candle{
		OpenTime: openTime,
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}

// finalize sorts candles, drops duplicates and anything outside [start, end).
func finalize(candles []domain.Candle, start, end time.Time) []domain.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })

	out := candles[:0]
	for _, c := range candles {
		if c.OpenTime.Before(start) || !c.OpenTime.Before(end) {
			continue
		}
		if len(out) > 0 && out[len(out)-1].OpenTime.Equal(c.OpenTime) {
			continue
		}
		out = append(out, c)
	}
	return out
}
