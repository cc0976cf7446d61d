package internal

import (
	"fmt"
	"os"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"go.uber.org/zap"

	"github.com/vadiminshakov/volprofile/config"
	"github.com/vadiminshakov/volprofile/internal/clients"
	"github.com/vadiminshakov/volprofile/internal/services/market/collector"
	"github.com/vadiminshakov/volprofile/pkg/retrier"
)

// NewDataSource wraps an exchange client into a market data source.
// This is the single point of truth for dispatching to platform-specific implementations.
func NewDataSource(client any) (collector.DataSource, error) {
	switch c := client.(type) {
	case *binance.Client:
		return collector.NewBinanceSource(c), nil
	case *bybit.Client:
		return collector.NewBybitSource(c), nil
	case *clients.HyperliquidClient:
		return collector.NewHyperliquidSource(c.Info()), nil
	case *collector.YahooSource:
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// BuildDataSource creates the source selected in the config, with retries.
// Exchange credentials are optional and read from the environment.
func BuildDataSource(conf config.Config, logger *zap.Logger) (collector.DataSource, error) {
	opts := []retrier.Option{retrier.WithMaxRetries(conf.MaxRetries)}

	build := func(platform string) (collector.DataSource, error) {
		var client any
		switch platform {
		case "binance":
			client = clients.NewBinanceClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))
		case "bybit":
			client = clients.NewBybitClient(os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"))
		case "hyperliquid":
			hl, err := clients.NewHyperliquidClient(os.Getenv("HYPERLIQUID_PRIVATE_KEY"), conf.HyperliquidURL)
			if err != nil {
				return nil, fmt.Errorf("failed to create hyperliquid client: %w", err)
			}
			client = hl
		case "yahoo":
			client = collector.NewYahooSource("", conf.YahooProxy)
		default:
			return nil, fmt.Errorf("unsupported platform: %s", platform)
		}

		source, err := NewDataSource(client)
		if err != nil {
			return nil, err
		}
		return collector.NewRetryingSource(source, opts...), nil
	}

	if conf.Source != "auto" {
		logger.Info("market data source", zap.String("source", conf.Source))
		return build(conf.Source)
	}

	crypto, err := build("binance")
	if err != nil {
		return nil, err
	}
	fallback, err := build("yahoo")
	if err != nil {
		return nil, err
	}
	logger.Info("market data source", zap.String("source", "auto"), zap.String("crypto", crypto.Name()), zap.String("fallback", fallback.Name()))
	return collector.NewRouter(crypto, fallback), nil
}
