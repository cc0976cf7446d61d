package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/volprofile/internal/domain"
	"github.com/vadiminshakov/volprofile/internal/services/market/analysis"
	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
)

const (
	defaultPeriodDays = 10
	maxPeriodDays     = 365
	maxResolution     = 5000
	maxBinCount       = 1000
)

// parseQuery builds an analysis query from URL parameters, falling back to server defaults.
func (s *Server) parseQuery(values url.Values) (analysis.Query, error) {
	d := s.Defaults

	symbol := d.Symbol
	if v := values.Get("symbol"); v != "" {
		symbol = domain.Symbol(v)
	}
	if symbol.String() == "" {
		return analysis.Query{}, errors.New("symbol is required")
	}

	interval := d.Interval
	if interval == "" {
		interval = domain.Interval1h
	}
	if v := values.Get("interval"); v != "" {
		parsed, err := domain.ParseInterval(v)
		if err != nil {
			return analysis.Query{}, err
		}
		interval = parsed
	}

	if d.PeriodDays == 0 {
		d.PeriodDays = defaultPeriodDays
	}
	days, err := intParam(values, "days", d.PeriodDays, 1, maxPeriodDays)
	if err != nil {
		return analysis.Query{}, err
	}

	q := analysis.QueryForPeriod(symbol, interval, s.now().UTC(), days)
	q.Mode = d.Mode
	if v := values.Get("mode"); v != "" {
		q.Mode = analysis.Mode(v)
	}
	if q.Mode != "" && q.Mode != analysis.ModeFixedStep && q.Mode != analysis.ModeFixedCount {
		return analysis.Query{}, errors.Errorf("unknown mode %q", q.Mode)
	}

	if q.Resolution, err = intParam(values, "resolution", d.Resolution, 1, maxResolution); err != nil {
		return analysis.Query{}, err
	}
	if q.BinCount, err = intParam(values, "bins", d.BinCount, 1, maxBinCount); err != nil {
		return analysis.Query{}, err
	}

	q.TargetFraction = d.TargetFraction
	if v := values.Get("value_area"); v != "" {
		frac, err := decimal.NewFromString(v)
		if err != nil {
			return analysis.Query{}, errors.Wrapf(err, "invalid value_area %q", v)
		}
		if !frac.IsPositive() || frac.GreaterThan(decimal.NewFromInt(1)) {
			return analysis.Query{}, errors.Errorf("value_area %s is outside (0, 1]", frac)
		}
		q.TargetFraction = frac.InexactFloat64()
	}

	ma, err := parseMovingAverage(values, d.MovingAverage)
	if err != nil {
		return analysis.Query{}, err
	}
	q.MovingAverage = ma

	return q, nil
}

// parseMovingAverage reads ma_type, ma_source, ma_period and ma_offset. ma_type=none disables the overlay.
func parseMovingAverage(values url.Values, def *indicators.MovingAverage) (*indicators.MovingAverage, error) {
	var ma indicators.MovingAverage
	if def != nil {
		ma = *def
	}

	typ := values.Get("ma_type")
	switch {
	case strings.EqualFold(typ, "none"):
		return nil, nil
	case typ != "":
		ma.Type = indicators.Type(typ)
	case def == nil:
		return nil, nil
	}

	if v := values.Get("ma_source"); v != "" {
		ma.Source = v
	}
	var err error
	if ma.Period, err = intParam(values, "ma_period", ma.Period, indicators.MinPeriod, indicators.MaxPeriod); err != nil {
		return nil, err
	}
	if ma.Offset, err = intParam(values, "ma_offset", ma.Offset, indicators.MinOffset, indicators.MaxOffset); err != nil {
		return nil, err
	}
	if ma.Period == 0 {
		ma.Period = 20
	}
	if err := ma.Validate(); err != nil {
		return nil, err
	}
	return &ma, nil
}

// parseIntervals reads a comma separated interval list.
func parseIntervals(raw string, def []domain.Interval) ([]domain.Interval, error) {
	if raw == "" {
		if len(def) == 0 {
			return nil, errors.New("timeframes are required")
		}
		return def, nil
	}

	var out []domain.Interval
	for _, part := range strings.Split(raw, ",") {
		interval, err := domain.ParseInterval(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, interval)
	}
	return out, nil
}

// intParam parses an integer parameter. A missing parameter yields def, which is not range checked.
func intParam(values url.Values, name string, def, min, max int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer, got %q", name, raw)
	}
	if v < min || v > max {
		return 0, errors.Errorf("%s %d out of range [%d, %d]", name, v, min, max)
	}
	return v, nil
}
