// Package domain defines core data structures used throughout the volume profile service.
package domain

import "strings"

var cryptoQuotes = []string{"USDT", "USDC", "BUSD"}

// Symbol instrument ticker as entered by the user, e.g. BTCUSDT or EURUSD.
type Symbol string

// String returns the normalized ticker.
func (s Symbol) String() string {
	return strings.ToUpper(strings.TrimSpace(string(s)))
}

// IsCrypto reports whether the symbol is quoted in a stablecoin and should be served by an exchange.
func (s Symbol) IsCrypto() bool {
	str := s.String()
	for _, quote := range cryptoQuotes {
		if len(str) > len(quote) && strings.HasSuffix(str, quote) {
			return true
		}
	}
	return false
}

// Base returns the base asset of a crypto symbol (BTC for BTCUSDT).
func (s Symbol) Base() string {
	str := s.String()
	for _, quote := range cryptoQuotes {
		if len(str) > len(quote) && strings.HasSuffix(str, quote) {
			return strings.TrimSuffix(str, quote)
		}
	}
	return str
}

// YahooTicker returns the Yahoo Finance ticker. Six-letter currency pairs get the "=X" suffix.
func (s Symbol) YahooTicker() string {
	str := s.String()
	if strings.HasSuffix(str, "=X") {
		return str
	}
	if len(str) == 6 && isLetters(str) {
		return str + "=X"
	}
	return str
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
