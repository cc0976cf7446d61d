package collector

import (
	"context"
	"fmt"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

const bybitMaxPerRequest = 1000

// BybitSource fetches spot klines from Bybit.
type BybitSource struct {
	client *bybit.Client
}

// NewBybitSource creates a new Bybit source.
func NewBybitSource(client *bybit.Client) *BybitSource {
	return &BybitSource{client: client}
}

// Name returns the source identifier.
func (s *BybitSource) Name() string { return "bybit" }

// Fetch pages backwards from end: Bybit returns the newest klines first.
func (s *BybitSource) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	if err := validateRange(interval, start, end); err != nil {
		return nil, err
	}
	bybitInterval, err := convertIntervalToBybit(interval)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid interval: %s", interval)
	}

	startMs := start.UnixMilli()
	cursor := end.UnixMilli()
	limit := bybitMaxPerRequest

	var candles []domain.Candle
	for cursor > startMs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batchStart, batchEnd := startMs, cursor
		param := bybit.V5GetKlineParam{
			Category: bybit.CategoryV5Spot,
			Symbol:   bybit.SymbolV5(symbol.String()),
			Interval: bybit.Interval(bybitInterval),
			Start:    &batchStart,
			End:      &batchEnd,
			Limit:    &limit,
		}

		result, err := s.client.V5().Market().GetKline(param)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", symbol)
		}
		if result == nil {
			return nil, errors.Errorf("empty result from Bybit API for %s", symbol)
		}

		klines := result.Result.List
		if len(klines) == 0 {
			break
		}

		oldest := cursor
		for i, k := range klines {
			openTime, err := parseTimestamp(k.StartTime)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse start time at index %d", i)
			}
			c, err := parseCandle(openTime, len(candles)+i, k.Open, k.High, k.Low, k.Close, k.Volume)
			if err != nil {
				return nil, err
			}
			candles = append(candles, c)
			if ms := openTime.UnixMilli(); ms < oldest {
				oldest = ms
			}
		}

		if len(klines) < limit {
			break
		}
		cursor = oldest - 1

		// avoid rate limiting by small delay between requests
		if err := pause(ctx, bybitPageDelay); err != nil {
			return nil, err
		}
	}

	candles = finalize(candles, start, end)
	if len(candles) == 0 {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "no kline data returned from Bybit for %s %s", symbol, interval)
	}

	return candles, nil
}

// convertIntervalToBybit converts intervals to Bybit format.
// Minutes are plain numbers, hours are converted to minutes, D/W/M for day, week and month.
func convertIntervalToBybit(interval domain.Interval) (string, error) {
	switch interval {
	case domain.Interval1m:
		return "1", nil
	case domain.Interval5m:
		return "5", nil
	case domain.Interval15m:
		return "15", nil
	case domain.Interval1h:
		return "60", nil
	case domain.Interval4h:
		return "240", nil
	case domain.Interval1d:
		return "D", nil
	case domain.Interval1wk:
		return "W", nil
	case domain.Interval1mo:
		return "M", nil
	default:
		return "", fmt.Errorf("unsupported interval: %s", interval)
	}
}

// parseTimestamp converts Bybit timestamp string (milliseconds) to time.Time.
func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	var msec int64
	_, err := fmt.Sscanf(ts, "%d", &msec)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to parse timestamp: %s", ts)
	}

	return time.UnixMilli(msec), nil
}
