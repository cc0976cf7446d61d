package clients

import (
	"crypto/ecdsa"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKey(t *testing.T) {
	t.Run("ephemeral key", func(t *testing.T) {
		a, err := loadKey("")
		require.NoError(t, err)
		b, err := loadKey("")
		require.NoError(t, err)
		assert.False(t, a.Equal(b))
	})

	t.Run("configured key", func(t *testing.T) {
		const key = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
		k, err := loadKey(key)
		require.NoError(t, err)
		addr := crypto.PubkeyToAddress(*k.Public().(*ecdsa.PublicKey)).Hex()
		assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", addr)
	})

	t.Run("invalid key", func(t *testing.T) {
		_, err := loadKey("zz")
		assert.Error(t, err)
	})
}

func TestNewBybitClient(t *testing.T) {
	assert.NotNil(t, NewBybitClient("", ""))
	assert.NotNil(t, NewBybitClient("key", "secret"))
	assert.NotNil(t, NewBinanceClient("", ""))
}

func TestNewHyperliquidClient_MetadataFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHyperliquidClient("", srv.URL)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "hyperliquid metadata")
}
