package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

func candlesFromCloses(closes ...float64) []domain.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     c - 1,
			High:     c + 1,
			Low:      c - 2,
			Close:    c,
			Volume:   1,
		}
	}
	return out
}

func assertSeries(t *testing.T, expected, actual []float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		if math.IsNaN(expected[i]) {
			assert.True(t, math.IsNaN(actual[i]), "index %d: expected NaN, got %v", i, actual[i])
			continue
		}
		assert.InDelta(t, expected[i], actual[i], 1e-9, "index %d", i)
	}
}

func TestCompute_SMA(t *testing.T) {
	nan := math.NaN()
	candles := candlesFromCloses(1, 2, 3, 4, 5)

	tests := []struct {
		name     string
		ma       MovingAverage
		expected []float64
	}{
		{
			name:     "close no offset",
			ma:       MovingAverage{Type: SMA, Source: "close", Period: 3},
			expected: []float64{nan, nan, 2, 3, 4},
		},
		{
			name:     "high source",
			ma:       MovingAverage{Type: SMA, Source: "high", Period: 3},
			expected: []float64{nan, nan, 3, 4, 5},
		},
		{
			name:     "positive offset shifts forward",
			ma:       MovingAverage{Type: SMA, Source: "close", Period: 3, Offset: 1},
			expected: []float64{nan, nan, nan, 2, 3},
		},
		{
			name:     "negative offset shifts backward",
			ma:       MovingAverage{Type: SMA, Source: "close", Period: 3, Offset: -2},
			expected: []float64{2, 3, 4, nan, nan},
		},
		{
			name:     "period one mirrors source",
			ma:       MovingAverage{Type: SMA, Source: "close", Period: 1},
			expected: []float64{1, 2, 3, 4, 5},
		},
		{
			name:     "period longer than series",
			ma:       MovingAverage{Type: SMA, Source: "close", Period: 10},
			expected: []float64{nan, nan, nan, nan, nan},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlay, err := Compute(candles, tt.ma)
			require.NoError(t, err)
			assertSeries(t, tt.expected, overlay.Values)
		})
	}
}

func TestCompute_WeightedAverages(t *testing.T) {
	nan := math.NaN()
	candles := candlesFromCloses(1, 2, 3, 4, 5)

	tests := []struct {
		name     string
		ma       MovingAverage
		expected []float64
	}{
		{
			name:     "wma favours newest bar",
			ma:       MovingAverage{Type: WMA, Period: 3},
			expected: []float64{nan, nan, 14.0 / 6, 20.0 / 6, 26.0 / 6},
		},
		{
			name:     "wma with offset",
			ma:       MovingAverage{Type: WMA, Period: 2, Offset: 1},
			expected: []float64{nan, nan, 5.0 / 3, 8.0 / 3, 11.0 / 3},
		},
		{
			name:     "ema seeded with first bar",
			ma:       MovingAverage{Type: EMA, Period: 3},
			expected: []float64{1, 1.5, 2.25, 3.125, 4.0625},
		},
		{
			name:     "ema defined for short series",
			ma:       MovingAverage{Type: EMA, Period: 20},
			expected: emaReference(20, 1, 2, 3, 4, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlay, err := Compute(candles, tt.ma)
			require.NoError(t, err)
			assertSeries(t, tt.expected, overlay.Values)
		})
	}
}

// emaReference is the recursive EMA with alpha 2/(period+1) seeded with the first value.
func emaReference(period int, values ...float64) []float64 {
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func TestCompute_WMAOnOpen(t *testing.T) {
	candles := candlesFromCloses(10, 20, 40)

	overlay, err := Compute(candles, MovingAverage{Type: WMA, Source: "open", Period: 3})
	require.NoError(t, err)
	// opens are 9, 19, 39
	assert.InDelta(t, (9*1+19*2+39*3)/6.0, overlay.Values[2], 1e-9)
}

func TestCompute_ConstantSeries(t *testing.T) {
	candles := candlesFromCloses(5, 5, 5, 5, 5, 5, 5, 5)

	for _, typ := range []Type{SMA, EMA, WMA} {
		t.Run(string(typ), func(t *testing.T) {
			overlay, err := Compute(candles, MovingAverage{Type: typ, Period: 4})
			require.NoError(t, err)
			require.Len(t, overlay.Values, len(candles))
			assert.InDelta(t, 5.0, overlay.Values[len(candles)-1], 1e-9)
			assert.Equal(t, "close", overlay.Source)
		})
	}
}

func TestMovingAverage_Validate(t *testing.T) {
	tests := []struct {
		name      string
		ma        MovingAverage
		shouldErr bool
	}{
		{name: "upper case type", ma: MovingAverage{Type: "EMA", Source: "Close", Period: 20}},
		{name: "bounds", ma: MovingAverage{Type: WMA, Source: "low", Period: MaxPeriod, Offset: MinOffset}},
		{name: "unknown type", ma: MovingAverage{Type: "hma", Period: 5}, shouldErr: true},
		{name: "unknown source", ma: MovingAverage{Type: SMA, Source: "volume", Period: 5}, shouldErr: true},
		{name: "zero period", ma: MovingAverage{Type: SMA, Period: 0}, shouldErr: true},
		{name: "period too large", ma: MovingAverage{Type: SMA, Period: 101}, shouldErr: true},
		{name: "offset too large", ma: MovingAverage{Type: SMA, Period: 5, Offset: 51}, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ma.Validate()
			if tt.shouldErr {
				assert.ErrorIs(t, err, ErrInvalidMovingAverage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
