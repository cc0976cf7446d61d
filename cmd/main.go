// Command volprofile computes volume profiles (point of control, value area,
// support and resistance) from exchange or Yahoo Finance candles.
// It either serves a web dashboard or prints a report and exits.
//
// Usage:
//
//	volprofile setup                  (interactive config wizard)
//	volprofile --config config.yaml
//	volprofile --mode report --symbol BTCUSDT --timeframes 1h,4h,1d
//
// Optional environment variables:
//
//	VOLPROFILE_PASSWORD: dashboard password when configured from flags
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	BYBIT_API_KEY, BYBIT_API_SECRET
//	HYPERLIQUID_PRIVATE_KEY (an ephemeral key is generated when unset)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/volprofile/config"
	"github.com/vadiminshakov/volprofile/internal"
	"github.com/vadiminshakov/volprofile/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	source, err := internal.BuildDataSource(conf, logger)
	if err != nil {
		logger.Fatal("failed to build market data source", zap.Error(err))
	}

	app, err := internal.NewApp(conf, source, logger)
	if err != nil {
		logger.Fatal("failed to create app", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Stdout); err != nil {
		logger.Fatal("volprofile stopped", zap.Error(err))
	}
}
