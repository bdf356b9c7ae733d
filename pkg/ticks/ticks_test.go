package ticks

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/spec"
)

func newScale(t *testing.T, kind spec.ScaleType, d domain.Domain, r scale.Range) scale.Scale {
	t.Helper()
	d.ScaleType = kind
	s, err := scale.New(kind, d, r, scale.Options{}, nil)
	require.NoError(t, err)
	return s
}

func values(ticks []Tick) []any {
	out := make([]any, len(ticks))
	for i, t := range ticks {
		out[i] = t.Value
	}
	return out
}

func labels(ticks []Tick) []string {
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = t.Label
	}
	return out
}

func TestLinearNiceTicks(t *testing.T) {
	s := newScale(t, spec.ScaleLinear, domain.Domain{Min: 0, Max: 100}, scale.Range{Start: 0, End: 500})
	res := Generate(s, Options{Count: 5})

	assert.Equal(t, []any{0.0, 20.0, 40.0, 60.0, 80.0, 100.0}, values(res.Ticks))
	assert.Equal(t, []string{"0", "20", "40", "60", "80", "100"}, labels(res.Ticks))
	assert.False(t, res.Overlap)
	for i, tk := range res.Ticks {
		assert.InDelta(t, float64(i)*100, tk.Position, 1e-9)
	}
}

func TestLinearTicksAreNice(t *testing.T) {
	tests := []struct {
		min, max float64
		count    int
	}{
		{0, 1, 10},
		{-3.7, 12.2, 5},
		{1e-4, 3e-4, 4},
		{100, 2500, 8},
		{-1e6, 1e6, 6},
	}
	for _, tt := range tests {
		s := newScale(t, spec.ScaleLinear, domain.Domain{Min: tt.min, Max: tt.max}, scale.Range{Start: 0, End: 2000})
		res := Generate(s, Options{Count: tt.count, ShowOverlappingTicks: true, ShowOverlappingLabels: true})
		for _, tk := range res.Ticks {
			v := tk.Value.(float64)
			if v == tt.min || v == tt.max || v == 0 {
				continue
			}
			m := math.Abs(v) / math.Pow10(int(math.Floor(math.Log10(math.Abs(v)))))
			m = math.Round(m*1e6) / 1e6
			if m != math.Trunc(m) && m*2 != math.Trunc(m*2) {
				t.Errorf("[%g, %g]: tick %v is not a nice value", tt.min, tt.max, v)
			}
		}
	}
}

func TestReversedRangeOrdersByPosition(t *testing.T) {
	s := newScale(t, spec.ScaleLinear, domain.Domain{Min: 0, Max: 100}, scale.Range{Start: 500, End: 0})
	res := Generate(s, Options{Count: 5, Vertical: true})
	require.NotEmpty(t, res.Ticks)
	assert.Equal(t, 100.0, res.Ticks[0].Value)
	for i := 1; i < len(res.Ticks); i++ {
		assert.Less(t, res.Ticks[i-1].Position, res.Ticks[i].Position)
	}
}

func TestBoundTicks(t *testing.T) {
	tests := []struct {
		name      string
		max       float64
		showTicks bool
		wantLast  float64
	}{
		{"bound clears interior tick", 95, false, 95},
		{"bound overlaps interior tick", 81, false, 80},
		{"overlapping bound kept", 81, true, 81},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScale(t, spec.ScaleLinear, domain.Domain{Min: 0, Max: tt.max}, scale.Range{Start: 0, End: 500})
			res := Generate(s, Options{Count: 5, ShowOverlappingTicks: tt.showTicks, ShowOverlappingLabels: true})
			last := res.Ticks[len(res.Ticks)-1]
			assert.Equal(t, tt.wantLast, last.Value)
		})
	}
}

func TestOverlapFlag(t *testing.T) {
	s := newScale(t, spec.ScaleLinear, domain.Domain{Min: 0, Max: 1e6}, scale.Range{Start: 0, End: 60})

	shown := Generate(s, Options{Count: 10, ShowOverlappingLabels: true})
	assert.True(t, shown.Overlap, "labels collide on a 60px axis")

	hidden := Generate(s, Options{Count: 10})
	assert.True(t, hidden.Overlap)
	for i := 1; i < len(hidden.Ticks); i++ {
		assert.False(t, overlaps(hidden.Ticks[i-1], hidden.Ticks[i], Options{}.withDefaults()))
	}
}

func TestRotationAffectsOverlap(t *testing.T) {
	tk := []Tick{{Label: "long label"}, {Label: "long label", Position: 30}}
	flat := Options{}.withDefaults()
	assert.True(t, collides(tk, flat))

	vertical := Options{Rotation: 90}.withDefaults()
	assert.False(t, collides(tk, vertical))
}

func TestLogTicks(t *testing.T) {
	s := newScale(t, spec.ScaleLog, domain.Domain{Min: 1, Max: 1000}, scale.Range{Start: 0, End: 300})
	res := Generate(s, Options{Count: 5})
	assert.Equal(t, []any{1.0, 10.0, 100.0, 1000.0}, values(res.Ticks))

	narrow := newScale(t, spec.ScaleLog, domain.Domain{Min: 1.5, Max: 8}, scale.Range{Start: 0, End: 300})
	res = Generate(narrow, Options{Count: 5, ShowOverlappingTicks: true})
	assert.Contains(t, values(res.Ticks), 2.0)
	assert.Contains(t, values(res.Ticks), 5.0)
}

func TestTimeTicks(t *testing.T) {
	ms := func(tm time.Time) float64 { return float64(tm.UnixMilli()) }

	t.Run("days", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		d := domain.Domain{Min: ms(start), Max: ms(start.AddDate(0, 0, 7))}
		s := newScale(t, spec.ScaleTime, d, scale.Range{Start: 0, End: 1600})
		res := Generate(s, Options{Count: 10})
		assert.Equal(t, []string{"Jan 01", "Jan 02", "Jan 03", "Jan 04", "Jan 05", "Jan 06", "Jan 07", "Jan 08"}, labels(res.Ticks))
	})

	t.Run("hours", func(t *testing.T) {
		start := time.Date(2024, 3, 10, 0, 20, 0, 0, time.UTC)
		d := domain.Domain{Min: ms(start), Max: ms(start.Add(5 * time.Hour))}
		s := newScale(t, spec.ScaleTime, d, scale.Range{Start: 0, End: 1600})
		res := Generate(s, Options{Count: 6})
		assert.Equal(t, []string{"01:00", "02:00", "03:00", "04:00", "05:00"}, labels(res.Ticks))
	})

	t.Run("decades", func(t *testing.T) {
		d := domain.Domain{
			Min: ms(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)),
			Max: ms(time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)),
		}
		s := newScale(t, spec.ScaleTime, d, scale.Range{Start: 0, End: 1600})
		res := Generate(s, Options{Count: 5})
		assert.Equal(t, []string{"2000", "2010", "2020", "2030", "2040", "2050"}, labels(res.Ticks))
	})

	t.Run("weeks start on monday", func(t *testing.T) {
		start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) // Wednesday
		vals := stepTimes(timeStep{unit: unitWeek, n: 1, approx: week}, ms(start), ms(start.AddDate(0, 0, 20)))
		require.NotEmpty(t, vals)
		for _, v := range vals {
			assert.Equal(t, time.Monday, time.UnixMilli(int64(v)).UTC().Weekday())
		}
	})
}

func TestOrdinalTicks(t *testing.T) {
	d := domain.Domain{Categories: []any{"a", "b", 3.0}}
	s := newScale(t, spec.ScaleOrdinal, d, scale.Range{Start: 0, End: 300})
	res := Generate(s, Options{})
	assert.Equal(t, []string{"a", "b", "3"}, labels(res.Ticks))
	for i, tk := range res.Ticks {
		assert.InDelta(t, 50+float64(i)*100, tk.Position, 1e-9, "tick at band centre")
	}
}

func TestDedupe(t *testing.T) {
	in := []Tick{
		{Value: 0.0, Label: "0%"},
		{Value: 0.001, Label: "0%"},
		{Value: 0.5, Label: "50%"},
		{Value: 0.999, Label: "100%"},
		{Value: 1.0, Label: "100%"},
		{Value: 2.0, Label: "0%"},
	}
	once := Dedupe(in)
	assert.Equal(t, []string{"0%", "50%", "100%", "0%"}, labels(once))
	assert.Equal(t, once, Dedupe(once), "idempotent")
	assert.Empty(t, Dedupe(nil))
}

func TestGenerateDuplicatedTicks(t *testing.T) {
	s := newScale(t, spec.ScaleLinear, domain.Domain{Min: 0, Max: 1}, scale.Range{Start: 0, End: 1000})
	coarse := func(v any) string {
		f, _ := spec.ToFloat(v)
		return FormatNumber(math.Round(f))
	}

	collapsed := Generate(s, Options{Count: 10, Formatter: coarse, ShowOverlappingLabels: true})
	assert.Equal(t, []string{"0", "1"}, labels(collapsed.Ticks))

	kept := Generate(s, Options{Count: 10, Formatter: coarse, ShowOverlappingLabels: true, ShowDuplicatedTicks: true})
	assert.Len(t, kept.Ticks, 11)
}

func TestMeasureLabel(t *testing.T) {
	w, h := MeasureLabel("abc", 13)
	assert.InDelta(t, 21, w, 1e-9)
	assert.InDelta(t, 13, h, 1e-9)

	w, h = LabelBox("abc", 13, 90)
	assert.InDelta(t, 13, w, 1e-9)
	assert.InDelta(t, 21, h, 1e-9)
}
