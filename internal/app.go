package internal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/volprofile/config"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/analysis"
	"github.com/vadiminshakov/volprofile/internal/services/market/collector"
	"github.com/vadiminshakov/volprofile/internal/services/valuearea"
	"github.com/vadiminshakov/volprofile/internal/session"
	"github.com/vadiminshakov/volprofile/internal/storage/annotations"
	"github.com/vadiminshakov/volprofile/internal/web"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Width(12)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// App runs the volume profile service in the configured mode.
type App struct {
	Config   config.Config
	Analyzer *analysis.Analyzer
	logger   *zap.Logger
	now      func() time.Time
}

// NewApp creates an application over the given market data source.
func NewApp(conf config.Config, source collector.DataSource, logger *zap.Logger) (*App, error) {
	strategy, ok := valuearea.StrategyByName(conf.ValueAreaStrategy)
	if !ok {
		return nil, errors.Errorf("unknown value area strategy %q", conf.ValueAreaStrategy)
	}

	return &App{
		Config:   conf,
		Analyzer: analysis.NewAnalyzer(source, valuearea.NewExtractor(strategy), logger),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Query returns the analysis query described by the config, ending at now.
func (a *App) Query(now time.Time) analysis.Query {
	q := analysis.QueryForPeriod(a.Config.Symbol, a.Config.Interval, now, a.Config.PeriodDays)
	q.Mode = analysis.Mode(a.Config.Binning)
	q.Resolution = a.Config.Resolution
	q.BinCount = a.Config.DynamicBins
	q.TargetFraction = a.Config.ValueArea.InexactFloat64()
	q.MovingAverage = a.Config.MovingAverage
	return q
}

// Run executes the configured mode until ctx is cancelled (serve) or the report is printed (report).
func (a *App) Run(ctx context.Context, out io.Writer) error {
	switch a.Config.Mode {
	case config.ModeServe:
		return a.serve(ctx)
	case config.ModeReport:
		return a.Report(ctx, out)
	default:
		return errors.Errorf("unsupported mode %q", a.Config.Mode)
	}
}

func (a *App) serve(ctx context.Context) error {
	store, err := annotations.NewWALStore(a.Config.AnnotationsDir)
	if err != nil {
		return errors.Wrap(err, "failed to open annotation store")
	}
	defer store.Close()

	sessions := session.NewManager(a.Config.Users, session.WithTTL(a.Config.SessionTTL))

	q := a.Query(a.now())
	server := web.NewServer(a.Config.ListenAddr, a.Analyzer, store, sessions, web.Defaults{
		Symbol:         q.Symbol,
		Interval:       q.Interval,
		PeriodDays:     a.Config.PeriodDays,
		Mode:           q.Mode,
		Resolution:     q.Resolution,
		BinCount:       q.BinCount,
		TargetFraction: q.TargetFraction,
		MovingAverage:  q.MovingAverage,
		Timeframes:     a.Config.ReportTimeframes,
	}, a.logger)

	if len(a.Config.TLSDomains) > 0 {
		return server.StartWithAutoTLS(ctx, a.Config.TLSDomains, a.Config.CertCacheDir)
	}
	return server.Start(ctx)
}

// Report prints POC, value area and support/resistance for each configured timeframe.
func (a *App) Report(ctx context.Context, out io.Writer) error {
	q := a.Query(a.now())
	reports, err := a.Analyzer.AnalyzeTimeframes(ctx, q, a.Config.ReportTimeframes)
	if err != nil {
		if domain.IsNoData(err) {
			fmt.Fprintln(out, warnStyle.Render("no data: "+err.Error()))
			return nil
		}
		return err
	}

	for _, r := range reports {
		fmt.Fprintln(out, FormatReport(r))
	}
	return nil
}

// FormatReport renders a report as a small text block.
func FormatReport(r *analysis.Report) string {
	lm := r.Landmarks
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s (%s)", r.Symbol, r.Interval, r.Source)))
	b.WriteString("\n")
	rows := [][2]string{
		{"POC", formatPrice(lm.PointOfControlPrice)},
		{"VA low", formatPrice(lm.ValueAreaLow)},
		{"VA high", formatPrice(lm.ValueAreaHigh)},
		{"Support", formatPrice(lm.SupportPrice)},
		{"Resistance", formatPrice(lm.ResistancePrice)},
		{"Volume", fmt.Sprintf("%.2f / %.2f in VA", lm.TotalVolume, lm.ValueAreaVolume)},
		{"Bins", fmt.Sprintf("%d", r.Profile.Len())},
		{"Candles", fmt.Sprintf("%d", len(r.Candles))},
	}
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(row[1])
		b.WriteString("\n")
	}
	if r.Profile.DroppedCandles > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d candles outside the profile range", r.Profile.DroppedCandles)))
		b.WriteString("\n")
	}
	return b.String()
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
