package domain

import "time"

// Candle single OHLCV bar. Sequences of candles are ordered by OpenTime.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Field returns the price selected by name: open, high, low or close.
func (c Candle) Field(name string) (float64, bool) {
	switch name {
	case "open":
		return c.Open, true
	case "high":
		return c.High, true
	case "low":
		return c.Low, true
	case "close":
		return c.Close, true
	default:
		return 0, false
	}
}
