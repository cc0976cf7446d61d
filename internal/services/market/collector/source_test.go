package collector

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/pkg/retrier"
)

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	args := m.Called(ctx, symbol, interval, start, end)
	candles, _ := args.Get(0).([]domain.Candle)
	return candles, args.Error(1)
}

var (
	rangeStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = rangeStart.Add(48 * time.Hour)
)

func TestRouter_Route(t *testing.T) {
	crypto := &mockSource{name: "binance"}
	fx := &mockSource{name: "yahoo"}
	r := NewRouter(crypto, fx)

	assert.Equal(t, "binance", r.Route("BTCUSDT").Name())
	assert.Equal(t, "binance", r.Route("ethusdc").Name())
	assert.Equal(t, "yahoo", r.Route("EURUSD").Name())
	assert.Equal(t, "yahoo", r.Route("^GSPC").Name())
	assert.Equal(t, "auto", r.Name())
}

func TestRouter_Fetch(t *testing.T) {
	crypto := &mockSource{name: "binance"}
	fx := &mockSource{name: "yahoo"}
	expected := []domain.Candle{{OpenTime: rangeStart, High: 2, Low: 1, Volume: 3}}
	fx.On("Fetch", mock.Anything, domain.Symbol("EURUSD"), domain.Interval1h, rangeStart, rangeEnd).Return(expected, nil)

	candles, err := NewRouter(crypto, fx).Fetch(context.Background(), "EURUSD", domain.Interval1h, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Equal(t, expected, candles)
	crypto.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	fx.AssertExpectations(t)
}

func TestRetryingSource(t *testing.T) {
	opts := []retrier.Option{retrier.WithMaxRetries(3), retrier.WithInitialInterval(time.Millisecond)}

	t.Run("transient failure retried", func(t *testing.T) {
		src := &mockSource{name: "binance"}
		expected := []domain.Candle{{OpenTime: rangeStart, High: 2, Low: 1, Volume: 3}}
		src.On("Fetch", mock.Anything, domain.Symbol("BTCUSDT"), domain.Interval1d, rangeStart, rangeEnd).
			Return(nil, errors.New("connection reset")).Once()
		src.On("Fetch", mock.Anything, domain.Symbol("BTCUSDT"), domain.Interval1d, rangeStart, rangeEnd).
			Return(expected, nil).Once()

		candles, err := NewRetryingSource(src, opts...).Fetch(context.Background(), "BTCUSDT", domain.Interval1d, rangeStart, rangeEnd)
		require.NoError(t, err)
		assert.Equal(t, expected, candles)
		src.AssertNumberOfCalls(t, "Fetch", 2)
	})

	t.Run("data unavailable not retried", func(t *testing.T) {
		src := &mockSource{name: "yahoo"}
		src.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.Wrap(domain.ErrDataUnavailable, "yahoo: no bars"))

		rs := NewRetryingSource(src, opts...)
		_, err := rs.Fetch(context.Background(), "EURUSD", domain.Interval1d, rangeStart, rangeEnd)
		assert.ErrorIs(t, err, domain.ErrDataUnavailable)
		src.AssertNumberOfCalls(t, "Fetch", 1)
		assert.Equal(t, "yahoo", rs.Name())
	})
}

func TestParseCandle(t *testing.T) {
	c, err := parseCandle(rangeStart, 0, "1.10", "1.2e0", "1.05", "1.15000000", "12345.5")
	require.NoError(t, err)
	assert.Equal(t, domain.Candle{OpenTime: rangeStart, Open: 1.1, High: 1.2, Low: 1.05, Close: 1.15, Volume: 12345.5}, c)

	_, err = parseCandle(rangeStart, 3, "1", "2", "x", "1", "1")
	assert.ErrorContains(t, err, "failed to parse low at index 3")
}

func TestFinalize(t *testing.T) {
	bar := func(h int) domain.Candle {
		return domain.Candle{OpenTime: rangeStart.Add(time.Duration(h) * time.Hour), Volume: float64(h)}
	}

	out := finalize([]domain.Candle{bar(3), bar(1), bar(-1), bar(2), bar(1), bar(48), bar(0)}, rangeStart, rangeEnd)

	require.Len(t, out, 4)
	for i, c := range out {
		assert.Equal(t, float64(i), c.Volume)
	}
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, validateRange(domain.Interval1h, rangeStart, rangeEnd))
	assert.Error(t, validateRange(domain.Interval1h, rangeEnd, rangeStart))
	assert.Error(t, validateRange("2h", rangeStart, rangeEnd))
}
