package profile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/volprofile/internal/domain"
)

func TestNewFixedStepScheme(t *testing.T) {
	s, err := NewFixedStepScheme(100, 110, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, s.BinCount())
	assert.Equal(t, []float64{100, 102.5, 105, 107.5, 110}, s.Edges())
	assert.Equal(t, 100.0, s.Low())
	assert.Equal(t, 110.0, s.High())
}

func TestNewFixedStepScheme_LastEdgePinned(t *testing.T) {
	// 0.1 is not representable, the progression would overshoot without pinning
	s, err := NewFixedStepScheme(1.1, 1.2, 500)
	require.NoError(t, err)

	edges := s.Edges()
	assert.Len(t, edges, 501)
	assert.Equal(t, 1.2, edges[len(edges)-1])
	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1])
	}
}

func TestNewFixedCountScheme(t *testing.T) {
	s, err := NewFixedCountScheme(0, 59, 59)
	require.NoError(t, err)

	edges := s.Edges()
	require.Len(t, edges, 60)
	for i, e := range edges {
		assert.InDelta(t, float64(i), e, 1e-9)
	}
}

func TestScheme_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Scheme, error)
	}{
		{
			name:  "low equals high",
			build: func() (*Scheme, error) { return NewFixedStepScheme(5, 5, 10) },
		},
		{
			name:  "high below low",
			build: func() (*Scheme, error) { return NewFixedCountScheme(6, 5, 10) },
		},
		{
			name:  "zero bins",
			build: func() (*Scheme, error) { return NewFixedCountScheme(1, 2, 0) },
		},
		{
			name:  "negative resolution",
			build: func() (*Scheme, error) { return NewFixedStepScheme(1, 2, -3) },
		},
		{
			name:  "infinite bound",
			build: func() (*Scheme, error) { return NewFixedStepScheme(1, math.Inf(1), 3) },
		},
		{
			name:  "single edge",
			build: func() (*Scheme, error) { return NewScheme([]float64{1}) },
		},
		{
			name:  "non increasing edges",
			build: func() (*Scheme, error) { return NewScheme([]float64{1, 2, 2, 3}) },
		},
		{
			name:  "NaN edge",
			build: func() (*Scheme, error) { return NewScheme([]float64{1, math.NaN(), 3}) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.build()
			assert.Nil(t, s)
			assert.ErrorIs(t, err, domain.ErrInvalidScheme)
		})
	}
}

func TestScheme_EdgesIsCopy(t *testing.T) {
	src := []float64{1, 2, 3}
	s, err := NewScheme(src)
	require.NoError(t, err)

	src[0] = 100
	edges := s.Edges()
	edges[1] = 100

	assert.Equal(t, []float64{1, 2, 3}, s.Edges())
}
