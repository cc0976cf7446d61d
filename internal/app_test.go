package internal

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/volprofile/config"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

type stubSource struct {
	mu      sync.Mutex
	candles []domain.Candle
	err     error
	calls   []domain.Interval
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(_ context.Context, _ domain.Symbol, interval domain.Interval, _, _ time.Time) ([]domain.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, interval)
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func reportConfig() config.Config {
	return config.Config{
		Source:           "yahoo",
		Symbol:           "BTCUSDT",
		Interval:         domain.Interval1h,
		PeriodDays:       10,
		Binning:          config.BinningFixedCount,
		Resolution:       500,
		DynamicBins:      2,
		ValueArea:        decimal.NewFromFloat(0.68),
		Mode:             config.ModeReport,
		ReportTimeframes: []domain.Interval{domain.Interval1h, domain.Interval4h},
	}
}

func TestNewApp_UnknownStrategy(t *testing.T) {
	conf := reportConfig()
	conf.ValueAreaStrategy = "widest"

	_, err := NewApp(conf, &stubSource{}, zap.NewNop())
	require.Error(t, err)
}

func TestApp_Query(t *testing.T) {
	app, err := NewApp(reportConfig(), &stubSource{}, zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	q := app.Query(now)

	assert.Equal(t, domain.Symbol("BTCUSDT"), q.Symbol)
	assert.Equal(t, now, q.End)
	assert.Equal(t, now.Add(-240*time.Hour), q.Start)
	assert.Equal(t, 2, q.BinCount)
	assert.InDelta(t, 0.68, q.TargetFraction, 1e-12)
}

func TestApp_Report(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{candles: []domain.Candle{
		{OpenTime: base, Open: 101, High: 110, Low: 100, Close: 108, Volume: 10},
		{OpenTime: base.Add(time.Hour), Open: 108, High: 110, Low: 105, Close: 106, Volume: 20},
	}}

	app, err := NewApp(reportConfig(), source, zap.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, app.Run(context.Background(), &out))

	text := out.String()
	assert.Contains(t, text, "BTCUSDT 1h (stub)")
	assert.Contains(t, text, "BTCUSDT 4h (stub)")
	assert.Contains(t, text, "107.5")
	assert.Contains(t, text, "115")
	assert.ElementsMatch(t, []domain.Interval{domain.Interval1h, domain.Interval4h}, source.calls)
}

func TestApp_ReportNoData(t *testing.T) {
	source := &stubSource{err: errors.Wrap(domain.ErrDataUnavailable, "empty chart")}

	app, err := NewApp(reportConfig(), source, zap.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, app.Report(context.Background(), &out))
	assert.Contains(t, out.String(), "no data")
}

func TestApp_ReportUpstreamError(t *testing.T) {
	source := &stubSource{err: errors.New("connection reset")}

	app, err := NewApp(reportConfig(), source, zap.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	require.Error(t, app.Report(context.Background(), &out))
}

func TestApp_RunUnsupportedMode(t *testing.T) {
	conf := reportConfig()
	conf.Mode = "trade"

	app, err := NewApp(conf, &stubSource{}, zap.NewNop())
	require.NoError(t, err)
	require.Error(t, app.Run(context.Background(), &bytes.Buffer{}))
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	conf := reportConfig()
	conf.Mode = config.ModeServe
	conf.ListenAddr = "127.0.0.1:0"
	conf.AnnotationsDir = t.TempDir()
	conf.SessionTTL = time.Minute
	conf.Users = map[string]string{}

	app, err := NewApp(conf, &stubSource{}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, &bytes.Buffer{}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
