package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

const binanceMaxLimit = 1000

// BinanceSource fetches spot klines from Binance.
type BinanceSource struct {
	client *binance.Client
}

// NewBinanceSource creates a new Binance source.
func NewBinanceSource(client *binance.Client) *BinanceSource {
	return &BinanceSource{client: client}
}

// Name returns the source identifier.
func (s *BinanceSource) Name() string { return "binance" }

// Fetch pages through klines until the whole [start, end) range is covered.
func (s *BinanceSource) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	if err := validateRange(interval, start, end); err != nil {
		return nil, err
	}
	binanceInterval, err := convertIntervalToBinance(interval)
	if err != nil {
		return nil, err
	}

	var candles []domain.Candle
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()

	for cursor < endMs {
		klines, err := s.client.NewKlinesService().
			Symbol(symbol.String()).
			Interval(binanceInterval).
			StartTime(cursor).
			EndTime(endMs).
			Limit(binanceMaxLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", symbol)
		}
		if len(klines) == 0 {
			break
		}

		for i, k := range klines {
			c, err := parseCandle(time.UnixMilli(k.OpenTime), len(candles)+i, k.Open, k.High, k.Low, k.Close, k.Volume)
			if err != nil {
				return nil, err
			}
			candles = append(candles, c)
		}

		if len(klines) < binanceMaxLimit {
			break
		}
		cursor = klines[len(klines)-1].OpenTime + 1
	}

	candles = finalize(candles, start, end)
	if len(candles) == 0 {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "no klines from Binance for %s %s", symbol, interval)
	}

	return candles, nil
}

// convertIntervalToBinance maps intervals to Binance notation, where weeks are "1w" and months "1M".
func convertIntervalToBinance(interval domain.Interval) (string, error) {
	switch interval {
	case domain.Interval1m, domain.Interval5m, domain.Interval15m,
		domain.Interval1h, domain.Interval4h, domain.Interval1d:
		return interval.String(), nil
	case domain.Interval1wk:
		return "1w", nil
	case domain.Interval1mo:
		return "1M", nil
	default:
		return "", errors.Errorf("unsupported interval for Binance: %s", interval)
	}
}
