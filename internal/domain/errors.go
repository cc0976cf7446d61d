package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidScheme binning scheme has no usable price range or bins.
	ErrInvalidScheme = errors.New("invalid binning scheme")
	// ErrEmptyInput no candles were supplied.
	ErrEmptyInput = errors.New("empty candle input")
	// ErrEmptyProfile profile carries no volume, landmarks are undefined.
	ErrEmptyProfile = errors.New("empty volume profile")
	// ErrInvalidTarget value area fraction is outside (0, 1].
	ErrInvalidTarget = errors.New("invalid value area target")
	// ErrDataUnavailable upstream has no data for the requested symbol or range.
	ErrDataUnavailable = errors.New("data unavailable")
)

// IsNoData reports whether err means there is nothing to show rather than a bad request.
func IsNoData(err error) bool {
	return errors.Is(err, ErrDataUnavailable) || errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrEmptyProfile)
}
