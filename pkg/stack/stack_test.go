package stack

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/series"
	"github.com/matzehuels/chartflow/pkg/spec"
)

func stacked(id string, mode spec.StackMode, ys ...float64) series.Series {
	s := series.Series{
		Identifier: series.Identifier{SpecID: id, Key: id},
		GroupID:    spec.DefaultGroupID,
		Kind:       spec.KindArea,
		StackKey:   "x",
		StackMode:  mode,
	}
	for i, y := range ys {
		p := series.DataPoint{X: float64(i), Y1: y, Row: i}
		if math.IsNaN(y) {
			p = series.DataPoint{X: float64(i), Missing: true, Row: i}
		}
		s.Points = append(s.Points, p)
	}
	return s
}

func TestStackCumulative(t *testing.T) {
	all := []series.Series{
		stacked("a", spec.StackStacked, 1, 2, 3),
		stacked("b", spec.StackStacked, 4, math.NaN(), 6),
	}
	res := Stack(all, nil)
	require.Len(t, res.Groups, 1)

	b := res.Series[1].Data
	assert.Equal(t, []float64{5, 2, 9}, []float64{b[0].Y1, b[1].Y1, b[2].Y1})
	assert.Equal(t, []float64{1, 2, 3}, []float64{b[0].Y0, b[1].Y0, b[2].Y0})
	assert.True(t, b[1].Missing)
	assert.Equal(t, 0.0, b[1].Base)
	assert.True(t, res.Series[0].InStack)
}

func TestStackPercentageZeroTotal(t *testing.T) {
	// category totals [10, 0, 5]
	all := []series.Series{
		stacked("a", spec.StackPercentage, 4, 0, 5),
		stacked("b", spec.StackPercentage, 6, 0, 0),
	}
	res := Stack(all, nil)
	a, b := res.Series[0].Data, res.Series[1].Data

	assert.Equal(t, []float64{10, 0, 5}, res.Groups[0].Totals)
	assert.Equal(t, 0.0, a[1].Percentage)
	assert.Equal(t, 0.0, b[1].Percentage)
	assert.False(t, math.IsNaN(a[1].Y1) || math.IsNaN(b[1].Y1))
	assert.InDelta(t, 1.0, a[0].Percentage+b[0].Percentage, 1e-12)
	assert.InDelta(t, 1.0, b[0].Y1, 1e-12)
	assert.InDelta(t, 0.4, a[0].Y1, 1e-12)
	assert.Equal(t, 1.0, a[2].Percentage)
}

func TestStackSilhouette(t *testing.T) {
	all := []series.Series{
		stacked("a", spec.StackSilhouette, 2, 4),
		stacked("b", spec.StackSilhouette, 2, 6),
	}
	res := Stack(all, nil)
	assert.Equal(t, []float64{-2, -5}, res.Groups[0].Baseline)
	a, b := res.Series[0].Data, res.Series[1].Data
	assert.Equal(t, -2.0, a[0].Y0)
	assert.Equal(t, 2.0, b[0].Y1)
	assert.Equal(t, 5.0, b[1].Y1)
}

func TestStackWiggle(t *testing.T) {
	// A single layer that rises by 2 is recentred by half the rise.
	res := Stack([]series.Series{stacked("a", spec.StackWiggle, 2, 4)}, nil)
	assert.Equal(t, []float64{0, -1}, res.Groups[0].Baseline)

	// Constant layers do not move the baseline.
	res = Stack([]series.Series{
		stacked("a", spec.StackWiggle, 3, 3, 3),
		stacked("b", spec.StackWiggle, 1, 1, 1),
	}, nil)
	assert.Equal(t, []float64{0, 0, 0}, res.Groups[0].Baseline)
}

func TestStackOrder(t *testing.T) {
	one, two := 1, 2
	a := stacked("a", spec.StackStacked, 1)
	b := stacked("b", spec.StackStacked, 1)
	c := stacked("c", spec.StackStacked, 1)
	a.SortIndex, b.SortIndex = &two, &one

	groups := Groups([]series.Series{a, b, c}, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{1, 0, 2}, groups[0].Members)
}

func TestStackAmbiguousOrder(t *testing.T) {
	one := 1
	a := stacked("a", spec.StackStacked, 1)
	b := stacked("b", spec.StackStacked, 1)
	a.SortIndex, b.SortIndex = &one, &one

	var diags errors.Diagnostics
	groups := Groups([]series.Series{a, b}, &diags)
	assert.Equal(t, []int{0, 1}, groups[0].Members, "declaration order breaks ties")
	assert.True(t, diags.Has(errors.ErrCodeAmbiguousStackOrder))
}

func TestStackConflictingModes(t *testing.T) {
	a := stacked("a", spec.StackPercentage, 1)
	b := stacked("b", spec.StackStacked, 3)

	var diags errors.Diagnostics
	res := Stack([]series.Series{a, b}, &diags)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, spec.StackPercentage, res.Groups[0].Mode, "the first member sets the mode")
	assert.True(t, diags.Has(errors.ErrCodeInvalidConfig))
	assert.InDelta(t, 1.0, res.Series[1].Data[0].Y1, 1e-9)

	diags = nil
	Stack([]series.Series{stacked("a", spec.StackStacked, 1), stacked("b", spec.StackStacked, 1)}, &diags)
	assert.Empty(t, diags)
}

func TestStackPassThrough(t *testing.T) {
	s := stacked("line", spec.StackNone, 3)
	s.StackKey = ""
	s.Points[0].Y0, s.Points[0].HasY0 = 1, true

	res := Stack([]series.Series{s}, nil)
	d := res.Series[0].Data[0]
	assert.False(t, res.Series[0].InStack)
	assert.Equal(t, 3.0, d.Y1)
	assert.Equal(t, 1.0, d.Y0)
	assert.True(t, d.Banded)
}

func TestStackSeparateGroups(t *testing.T) {
	a := stacked("a", spec.StackStacked, 1)
	b := stacked("b", spec.StackStacked, 1)
	b.GroupID = "right"
	res := Stack([]series.Series{a, b}, nil)
	assert.Len(t, res.Groups, 2)
	assert.Equal(t, 1.0, res.Series[1].Data[0].Y1)
}

func TestStackConservationProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, mode := range []spec.StackMode{spec.StackStacked, spec.StackPercentage, spec.StackSilhouette, spec.StackWiggle} {
		for trial := 0; trial < 50; trial++ {
			n, m := 1+rng.Intn(5), 1+rng.Intn(8)
			all := make([]series.Series, n)
			for k := range all {
				ys := make([]float64, m)
				for j := range ys {
					switch rng.Intn(5) {
					case 0:
						ys[j] = 0
					case 1:
						ys[j] = math.NaN()
					default:
						ys[j] = rng.Float64() * 100
					}
				}
				all[k] = stacked(string(rune('a'+k)), mode, ys...)
			}

			res := Stack(all, nil)
			g := res.Groups[0]
			last := res.Series[g.Members[len(g.Members)-1]].Data
			for j := 0; j < m; j++ {
				sum, pct := 0.0, 0.0
				for _, mi := range g.Members {
					sum += res.Series[mi].Data[j].Base
					pct += res.Series[mi].Data[j].Percentage
				}
				assert.InDelta(t, sum, last[j].Stacked, 1e-9, "conservation mode=%s", mode)
				if g.Totals[j] != 0 {
					assert.InDelta(t, 1.0, pct, 1e-9, "normalization mode=%s", mode)
				} else {
					assert.Equal(t, 0.0, pct, "zero total mode=%s", mode)
				}
			}
		}
	}
}
