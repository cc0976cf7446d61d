package domain

import (
	"fmt"
	"time"
)

// Interval candle timeframe.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
	Interval1wk: 7 * 24 * time.Hour,
	Interval1mo: 30 * 24 * time.Hour,
}

// Intervals lists supported timeframes from the shortest to the longest.
func Intervals() []Interval {
	return []Interval{
		Interval1m, Interval5m, Interval15m, Interval1h,
		Interval4h, Interval1d, Interval1wk, Interval1mo,
	}
}

// ParseInterval validates the interval string.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if !i.IsValid() {
		return "", fmt.Errorf("unsupported interval %q", s)
	}
	return i, nil
}

// IsValid checks if the Interval value is supported.
func (i Interval) IsValid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// Duration returns the nominal candle length. Months are approximated as 30 days.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

// String returns the string representation.
func (i Interval) String() string {
	return string(i)
}
