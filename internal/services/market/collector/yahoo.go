package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource fetches bars from the Yahoo Finance chart API. It serves FX pairs, indices and stocks.
type YahooSource struct {
	client  *http.Client
	baseURL string
}

// NewYahooSource creates a Yahoo source. An empty baseURL means the public endpoint;
// proxyURL is optional.
func NewYahooSource(baseURL, proxyURL string) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooSource{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		baseURL: baseURL,
	}
}

// Name returns the source identifier.
func (s *YahooSource) Name() string { return "yahoo" }

// yahooChart is the response structure from the chart API. Missing values are null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch fetches bars for the range. Yahoo has no 4h bars, they are built from 1h bars.
func (s *YahooSource) Fetch(ctx context.Context, symbol domain.Symbol, interval domain.Interval, start, end time.Time) ([]domain.Candle, error) {
	if err := validateRange(interval, start, end); err != nil {
		return nil, err
	}

	yahooInterval := convertIntervalToYahoo(interval)
	candles, err := s.fetchChart(ctx, symbol.YahooTicker(), yahooInterval, start, end)
	if err != nil {
		return nil, err
	}
	candles = finalize(candles, start, end)
	if interval == domain.Interval4h {
		candles = resample(candles, interval.Duration())
	}
	if len(candles) == 0 {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "yahoo: no bars for %s %s", symbol, interval)
	}

	return candles, nil
}

func (s *YahooSource) fetchChart(ctx context.Context, ticker, interval string, start, end time.Time) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo fetch")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo read body")
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}
		return nil, errors.Wrap(err, "yahoo decode")
	}
	if chart.Chart.Error != nil {
		// unknown tickers and empty ranges come back as chart errors
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "yahoo api error for %s: %s", ticker, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "yahoo: no data returned for %s", ticker)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]domain.Candle, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // skip null bars (holidays, halted sessions)
		}
		var v float64
		if vp := at(quote.Volume, i); vp != nil {
			v = *vp
		}
		bars = append(bars, domain.Candle{
			OpenTime: time.Unix(ts, 0).UTC(),
			Open:     *o,
			High:     *h,
			Low:      *l,
			Close:    *c,
			Volume:   v,
		})
	}

	return bars, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func convertIntervalToYahoo(interval domain.Interval) string {
	switch interval {
	case domain.Interval1h, domain.Interval4h:
		return "60m"
	default:
		return interval.String()
	}
}

// resample merges consecutive bars into buckets of the given size aligned to the Unix epoch.
func resample(bars []domain.Candle, size time.Duration) []domain.Candle {
	var out []domain.Candle
	for _, b := range bars {
		bucket := b.OpenTime.Truncate(size)
		if n := len(out); n > 0 && out[n-1].OpenTime.Equal(bucket) {
			last := &out[n-1]
			if b.High > last.High {
				last.High = b.High
			}
			if b.Low < last.Low {
				last.Low = b.Low
			}
			last.Close = b.Close
			last.Volume += b.Volume
			continue
		}
		b.OpenTime = bucket
		out = append(out, b)
	}
	return out
}
