package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vadiminshakov/volprofile/internal/services/market/indicators"
	"golang.org/x/crypto/bcrypt"
)

// PasswordEnv holds the dashboard password when the service is configured from flags.
const PasswordEnv = "VOLPROFILE_PASSWORD"

// Load reads --config path.yaml, or builds the configuration from flags when no file is given.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("volprofile", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	source := fs.String("source", defaultSource, "market data source: auto, binance, bybit, hyperliquid, yahoo")
	symbol := fs.String("symbol", defaultSymbol, "symbol, example: BTCUSDT or EURUSD")
	interval := fs.String("interval", defaultInterval.String(), "candle interval, example: 1h")
	days := fs.Int("days", defaultPeriodDays, "days to analyze")
	binning := fs.String("binning", BinningFixedCount, "binning: fixed_step or fixed_count")
	resolution := fs.Int("resolution", defaultResolution, "bins for fixed_step binning")
	bins := fs.Int("bins", defaultDynamicBins, "bins for fixed_count binning")
	valueArea := fs.String("value-area", defaultValueArea, "value area volume share, example: 0.68")
	strategy := fs.String("value-area-strategy", defaultValueAreaStrategy, "ranked_span or contiguous")
	listen := fs.String("listen", defaultListenAddr, "web server listen address")
	ttl := fs.Duration("session-ttl", defaultSessionTTL, "dashboard session lifetime")
	user := fs.String("user", "admin", "dashboard user, password is read from "+PasswordEnv)
	annotationsDir := fs.String("annotations-dir", defaultAnnotationsDir, "annotation WAL directory")
	maxRetries := fs.Int("max-retries", defaultMaxRetries, "market data fetch retries")
	yahooProxy := fs.String("yahoo-proxy", "", "proxy URL for Yahoo Finance requests")
	hyperliquidURL := fs.String("hyperliquid-url", "", "Hyperliquid API URL")
	maType := fs.String("ma-type", "", "moving average overlay: sma, ema or wma")
	maSource := fs.String("ma-source", "close", "moving average source field")
	maPeriod := fs.Int("ma-period", 20, "moving average period")
	maOffset := fs.Int("ma-offset", 0, "moving average offset in bars")
	mode := fs.String("mode", ModeServe, "serve or report")
	timeframes := fs.String("timeframes", "", "comma separated report timeframes, example: 1h,4h,1d")
	tlsDomains := fs.String("tls-domains", "", "comma separated domains for automatic TLS")
	certCache := fs.String("cert-cache", "", "ACME certificate cache directory")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *configPath != "" {
		return getYaml(*configPath)
	}

	tmp := ConfigTmp{
		Source:            *source,
		Symbol:            *symbol,
		Interval:          *interval,
		PeriodDaysStr:     strconv.Itoa(*days),
		Binning:           *binning,
		ResolutionStr:     strconv.Itoa(*resolution),
		DynamicBinsStr:    strconv.Itoa(*bins),
		ValueArea:         *valueArea,
		ValueAreaStrategy: *strategy,
		ListenAddr:        *listen,
		SessionTTL:        *ttl,
		AnnotationsDir:    *annotationsDir,
		MaxRetriesStr:     strconv.Itoa(*maxRetries),
		YahooProxy:        *yahooProxy,
		HyperliquidURL:    *hyperliquidURL,
		Mode:              *mode,
		CertCacheDir:      *certCache,
	}
	if *timeframes != "" {
		tmp.ReportTimeframes = strings.Split(*timeframes, ",")
	}
	if *tlsDomains != "" {
		tmp.TLSDomains = strings.Split(*tlsDomains, ",")
	}
	if *maType != "" {
		tmp.MovingAverage = &indicators.MovingAverage{
			Type:   indicators.Type(*maType),
			Source: *maSource,
			Period: *maPeriod,
			Offset: *maOffset,
		}
	}

	if password := os.Getenv(PasswordEnv); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return Config{}, fmt.Errorf("hash %s: %w", PasswordEnv, err)
		}
		tmp.Users = map[string]string{*user: string(hash)}
	}

	return tmp.parse()
}
