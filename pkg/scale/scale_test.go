package scale

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

func continuous(t spec.ScaleType, min, max float64) domain.Domain {
	return domain.Domain{ScaleType: t, Min: min, Max: max}
}

func TestLinearScale(t *testing.T) {
	s, err := New(spec.ScaleLinear, continuous(spec.ScaleLinear, 0, 10), Range{0, 100}, Options{}, nil)
	require.NoError(t, err)

	tests := []struct {
		in   any
		want float64
	}{
		{0.0, 0},
		{5, 50},
		{10.0, 100},
		{-1.0, -10},
	}
	for _, tt := range tests {
		got, ok := s.Scale(tt.in)
		if !ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Scale(%v) = %v, %v, want %v", tt.in, got, ok, tt.want)
		}
	}
	if _, ok := s.Scale("x"); ok {
		t.Error("Scale(string) ok = true, want false")
	}
}

func TestReversedRange(t *testing.T) {
	s, err := New(spec.ScaleLinear, continuous(spec.ScaleLinear, 0, 7), Range{Start: 400, End: 0}, Options{}, nil)
	require.NoError(t, err)
	px, _ := s.Scale(7.0)
	assert.InDelta(t, 0, px, 1e-9)
	px, _ = s.Scale(0.0)
	assert.InDelta(t, 400, px, 1e-9)
}

func TestLogScale(t *testing.T) {
	s, err := New(spec.ScaleLog, continuous(spec.ScaleLog, 1, 1000), Range{0, 300}, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, spec.ScaleLog, s.Type())
	px, ok := s.Scale(100.0)
	assert.True(t, ok)
	assert.InDelta(t, 200, px, 1e-9)

	_, ok = s.Scale(-5.0)
	assert.False(t, ok, "negative value on positive log domain")
}

func TestLogScaleCrossingZeroDegrades(t *testing.T) {
	var diags errors.Diagnostics
	s, err := New(spec.ScaleLog, continuous(spec.ScaleLog, -10, 10), Range{0, 100}, Options{}, &diags)
	require.NoError(t, err)
	assert.Equal(t, spec.ScaleLinear, s.Type())
	assert.True(t, diags.Has(errors.ErrCodeUnsupportedScale))
	px, _ := s.Scale(0.0)
	assert.InDelta(t, 50, px, 1e-9)
}

func TestNaNDomainRejected(t *testing.T) {
	_, err := New(spec.ScaleLinear, continuous(spec.ScaleLinear, math.NaN(), math.NaN()), Range{0, 1}, Options{}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidDomain) {
		t.Errorf("New(NaN) error = %v, want %s", err, errors.ErrCodeInvalidDomain)
	}
	_, err = New(spec.ScaleLinear, continuous(spec.ScaleLinear, 0, 1), Range{0, math.Inf(1)}, Options{}, nil)
	if err == nil {
		t.Error("New(infinite range) error = nil")
	}
}

func TestZeroWidthDomain(t *testing.T) {
	tests := []struct {
		name    string
		t       spec.ScaleType
		v       float64
		wantMin float64
		wantMax float64
	}{
		{"linear", spec.ScaleLinear, 5, 4.5, 5.5},
		{"time", spec.ScaleTime, 0, -0.5, 0.5},
		{"log", spec.ScaleLog, 10, 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.t, continuous(tt.t, tt.v, tt.v), Range{0, 100}, Options{}, nil)
			require.NoError(t, err)
			d := s.Domain()
			assert.InDelta(t, tt.wantMin, d.Min, 1e-9)
			assert.InDelta(t, tt.wantMax, d.Max, 1e-9)
			px, ok := s.Scale(tt.v)
			assert.True(t, ok)
			assert.InDelta(t, 50, px, 1e-9)
		})
	}
}

func TestRoundTripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, kind := range []spec.ScaleType{spec.ScaleLinear, spec.ScaleLog, spec.ScaleTime} {
		for trial := 0; trial < 100; trial++ {
			var d domain.Domain
			switch kind {
			case spec.ScaleLog:
				lo := math.Pow(10, rng.Float64()*4-2)
				d = continuous(kind, lo, lo*(1+rng.Float64()*1000))
			case spec.ScaleTime:
				start := float64(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
				d = continuous(kind, start, start+rng.Float64()*1e10+1)
			default:
				lo := rng.NormFloat64() * 1000
				d = continuous(kind, lo, lo+rng.Float64()*1000+1e-3)
			}
			s, err := New(kind, d, Range{0, 800}, Options{}, nil)
			require.NoError(t, err)

			v := d.Min + rng.Float64()*(d.Max-d.Min)
			px, ok := s.Scale(v)
			require.True(t, ok)
			back, ok := s.Invert(px)
			require.True(t, ok)
			tol := 1e-9 * math.Max(1, math.Abs(d.Min)+math.Abs(d.Max))
			assert.InDelta(t, v, back.(float64), tol, "%s domain [%g, %g]", kind, d.Min, d.Max)
		}
	}
}

func TestBandScale(t *testing.T) {
	d := domain.Domain{ScaleType: spec.ScaleOrdinal, Categories: []any{"a", "b", "c"}}

	s, err := New(spec.ScaleOrdinal, d, Range{0, 300}, Options{}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, s.Bandwidth(), 1e-9)
	assert.InDelta(t, 100, s.Step(), 1e-9)
	for i, c := range []string{"a", "b", "c"} {
		px, ok := s.Scale(c)
		assert.True(t, ok)
		assert.InDelta(t, float64(i)*100, px, 1e-9)
	}
	_, ok := s.Scale("z")
	assert.False(t, ok)

	got, ok := s.Invert(150)
	assert.True(t, ok)
	assert.Equal(t, "b", got)
	got, _ = s.Invert(-20)
	assert.Equal(t, "a", got)
}

func TestBandScalePadding(t *testing.T) {
	d := domain.Domain{ScaleType: spec.ScaleOrdinal, Categories: []any{"a", "b"}}
	s, err := New(spec.ScaleOrdinal, d, Range{0, 100}, Options{Padding: spec.Padding{Inner: 0.5, Outer: 0.25}}, nil)
	require.NoError(t, err)

	// step = 100 / (2 - 0.5 + 0.5) = 50; bandwidth = 25; start = (100 - 50*1.5) / 2 = 12.5
	assert.InDelta(t, 50, s.Step(), 1e-9)
	assert.InDelta(t, 25, s.Bandwidth(), 1e-9)
	px, _ := s.Scale("a")
	assert.InDelta(t, 12.5, px, 1e-9)
	px, _ = s.Scale("b")
	assert.InDelta(t, 62.5, px, 1e-9)
}

func TestBandScaleReversed(t *testing.T) {
	d := domain.Domain{ScaleType: spec.ScaleOrdinal, Categories: []any{"a", "b"}}
	s, err := New(spec.ScaleOrdinal, d, Range{Start: 200, End: 0}, Options{}, nil)
	require.NoError(t, err)
	px, _ := s.Scale("a")
	assert.InDelta(t, 100, px, 1e-9)
	got, _ := s.Invert(150)
	assert.Equal(t, "a", got)
}

func TestBandedContinuous(t *testing.T) {
	d := domain.Domain{ScaleType: spec.ScaleLinear, Min: 0, Max: 3, MinInterval: 1}
	s, err := New(spec.ScaleLinear, d, Range{0, 400}, Options{Banded: true, MinInterval: 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, s.Bandwidth(), 1e-9)
	px, _ := s.Scale(3.0)
	assert.InDelta(t, 300, px, 1e-9, "last band ends at the range end")
}

func TestBandedContinuousReversed(t *testing.T) {
	d := domain.Domain{ScaleType: spec.ScaleLinear, Min: 0, Max: 3, MinInterval: 1}
	s, err := New(spec.ScaleLinear, d, Range{400, 0}, Options{Banded: true, MinInterval: 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, s.Bandwidth(), 1e-9)

	first, _ := s.Scale(0.0)
	last, _ := s.Scale(3.0)
	assert.InDelta(t, 300, first, 1e-9, "first band ends at the range start")
	assert.InDelta(t, 0, last, 1e-9, "last band starts at the range end")
	got, _ := s.Invert(first)
	assert.InDelta(t, 0.0, got, 1e-9)
}
