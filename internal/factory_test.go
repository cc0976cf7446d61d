package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/volprofile/config"
	"github.com/vadiminshakov/volprofile/internal/clients"
	"github.com/vadiminshakov/volprofile/internal/services/market/collector"
)

func TestNewDataSource(t *testing.T) {
	tests := []struct {
		name     string
		client   any
		wantName string
		wantErr  bool
	}{
		{name: "binance", client: clients.NewBinanceClient("", ""), wantName: "binance"},
		{name: "bybit", client: clients.NewBybitClient("", ""), wantName: "bybit"},
		{name: "yahoo", client: collector.NewYahooSource("", ""), wantName: "yahoo"},
		{name: "unsupported", client: "kraken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewDataSource(tt.client)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, source.Name())
		})
	}
}

func TestBuildDataSource(t *testing.T) {
	tests := []struct {
		source   string
		wantName string
		wantErr  bool
	}{
		{source: "auto", wantName: "auto"},
		{source: "binance", wantName: "binance"},
		{source: "bybit", wantName: "bybit"},
		{source: "yahoo", wantName: "yahoo"},
		{source: "kraken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			conf := config.Config{Source: tt.source, MaxRetries: 2}
			source, err := BuildDataSource(conf, zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, source.Name())
		})
	}
}
