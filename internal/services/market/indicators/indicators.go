// Package indicators computes moving average overlays drawn next to the volume profile.
// It uses the cinar/indicator library for the averages themselves.
package indicators

import (
	"math"
	"strings"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

// Type is a moving average kind.
type Type string

const (
	SMA Type = "sma"
	EMA Type = "ema"
	WMA Type = "wma"
)

const (
	MinPeriod = 1
	MaxPeriod = 100
	MinOffset = -50
	MaxOffset = 50
)

// ErrInvalidMovingAverage is returned for unknown types, sources or out of range parameters.
var ErrInvalidMovingAverage = errors.New("invalid moving average")

// MovingAverage describes an overlay: which average, over which candle field, shifted by Offset bars.
type MovingAverage struct {
	Type   Type   `json:"type" yaml:"type"`
	Source string `json:"source" yaml:"source"`
	Period int    `json:"period" yaml:"period"`
	Offset int    `json:"offset" yaml:"offset"`
}

// Overlay is a computed moving average aligned to the input candles.
type Overlay struct {
	MovingAverage
	// Values has one entry per candle, NaN where the average is undefined.
	Values []float64 `json:"-"`
}

// Validate checks the parameters and normalizes Type and Source to lower case.
func (m *MovingAverage) Validate() error {
	m.Type = Type(strings.ToLower(string(m.Type)))
	m.Source = strings.ToLower(m.Source)
	if m.Source == "" {
		m.Source = "close"
	}

	switch m.Type {
	case SMA, EMA, WMA:
	default:
		return errors.Wrapf(ErrInvalidMovingAverage, "unknown type %q", m.Type)
	}
	switch m.Source {
	case "open", "high", "low", "close":
	default:
		return errors.Wrapf(ErrInvalidMovingAverage, "unknown source %q", m.Source)
	}
	if m.Period < MinPeriod || m.Period > MaxPeriod {
		return errors.Wrapf(ErrInvalidMovingAverage, "period %d out of range [%d, %d]", m.Period, MinPeriod, MaxPeriod)
	}
	if m.Offset < MinOffset || m.Offset > MaxOffset {
		return errors.Wrapf(ErrInvalidMovingAverage, "offset %d out of range [%d, %d]", m.Offset, MinOffset, MaxOffset)
	}
	return nil
}

// Compute calculates the overlay for the candles. A positive offset moves values
// to later bars, a negative one to earlier bars; vacated positions are NaN.
func Compute(candles []domain.Candle, ma MovingAverage) (*Overlay, error) {
	if err := ma.Validate(); err != nil {
		return nil, err
	}

	series := make([]float64, len(candles))
	for i, c := range candles {
		v, _ := c.Field(ma.Source)
		series[i] = v
	}

	values := shift(align(calculate(series, ma), len(series)), ma.Offset)

	return &Overlay{MovingAverage: ma, Values: values}, nil
}

func calculate(series []float64, ma MovingAverage) []float64 {
	if ma.Type == EMA {
		return ema(series, ma.Period)
	}
	if len(series) < ma.Period {
		return nil
	}

	if ma.Type == WMA {
		// the library weights the oldest bar of a window most, so run it over the
		// reversed series to give the newest bar the largest weight
		wma := trend.NewWmaWith[float64](ma.Period).Compute(helper.SliceToChan(reversed(series)))
		return reversed(helper.ChanToSlice(wma))
	}

	sma := trend.NewSmaWithPeriod[float64](ma.Period).Compute(helper.SliceToChan(series))
	return helper.ChanToSlice(sma)
}

// ema is seeded with the first bar, so it is defined from bar 0.
func ema(series []float64, period int) []float64 {
	if len(series) == 0 {
		return nil
	}
	multiplier := float64(trend.DefaultEmaSmoothing) / float64(period+1)
	out := helper.MapWithPrevious(helper.SliceToChan(series), func(before, n float64) float64 {
		return (n-before)*multiplier + before
	}, series[0])
	return helper.ChanToSlice(out)
}

func reversed(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

// align pads the front of values with NaN so the last value lines up with the last bar.
func align(values []float64, n int) []float64 {
	out := make([]float64, n)
	pad := n - len(values)
	for i := range out {
		if i < pad {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i-pad]
	}
	return out
}

func shift(values []float64, offset int) []float64 {
	if offset == 0 {
		return values
	}
	out := make([]float64, len(values))
	for i := range out {
		j := i - offset
		if j < 0 || j >= len(values) {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[j]
	}
	return out
}
