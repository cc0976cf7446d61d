package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

// HyperliquidSource fetches perp candles from Hyperliquid. Symbols are mapped to the coin name (BTCUSDT -> BTC).
type HyperliquidSource struct {
	info *hyperliquid.Info
}

// NewHyperliquidSource creates a new Hyperliquid source.
func NewHyperliquidSource(info *hyperliquid.Info) *HyperliquidSource {
	return &HyperliquidSource{info: info}
}

// Name returns the source identifier.
func (s *HyperliquidSource) Name() string { return "hyperliquid" }

// Fetch fetches a candle snapshot for the range.
func (s *HyperliquidSource) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	if s.info == nil {
		return nil, errors.New("hyperliquid info is nil")
	}
	if err := validateRange(interval, start, end); err != nil {
		return nil, err
	}
	// Hyperliquid shares Binance interval notation
	hlInterval, err := convertIntervalToBinance(interval)
	if err != nil {
		return nil, err
	}

	coin := symbol.Base()
	snapshot, err := s.info.CandlesSnapshot(ctx, coin, hlInterval, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch candles from Hyperliquid for %s", coin)
	}

	candles := make([]domain.Candle, 0, len(snapshot))
	for i, c := range snapshot {
		candle, err := parseCandle(time.UnixMilli(c.TimeOpen), i, c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	candles = finalize(candles, start, end)
	if len(candles) == 0 {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "no candles from Hyperliquid for %s %s", coin, interval)
	}

	return candles, nil
}
