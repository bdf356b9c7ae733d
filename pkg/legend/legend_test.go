package legend

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartflow/pkg/series"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
)

func mk(key string, ys ...float64) stack.StackedSeries {
	s := stack.StackedSeries{Series: series.Series{
		Identifier: series.Identifier{SpecID: "s", Key: key},
		GroupID:    spec.DefaultGroupID,
		Kind:       spec.KindLine,
		Name:       key,
	}}
	for i, y := range ys {
		d := stack.Datum{Category: float64(i), SeriesKey: key, Base: y, Y1: y}
		if math.IsNaN(y) {
			d = stack.Datum{Category: float64(i), SeriesKey: key, Missing: true}
		}
		s.Data = append(s.Data, d)
	}
	return s
}

func slots(vs []SeriesCollectionValue) map[string]int {
	out := make(map[string]int)
	for _, v := range vs {
		out[v.Key] = v.Slot
	}
	return out
}

func TestColorSlotsPersist(t *testing.T) {
	vs, assigned := Build([]stack.StackedSeries{mk("a", 1), mk("b", 1), mk("c", 1)}, nil, Options{})
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, slots(vs))
	assert.Equal(t, DefaultPalette[1], vs[1].Color)

	// b disappears and d arrives: a and c keep their slots, d does not
	// steal b's slot while b is still assigned.
	vs, next := Build([]stack.StackedSeries{mk("c", 1), mk("d", 1), mk("a", 1)}, assigned, Options{})
	assert.Equal(t, map[string]int{"a": 0, "c": 2, "d": 3}, slots(vs))
	assert.Len(t, next, 4)
	assert.Len(t, assigned, 3, "input assignment is not modified")

	// once b is released, the next newcomer takes the lowest free slot
	vs, _ = Build([]stack.StackedSeries{mk("a", 1), mk("e", 1)}, next.Retain("a", "c", "d"), Options{})
	assert.Equal(t, map[string]int{"a": 0, "e": 1}, slots(vs))
}

func TestColorOverridesAndPalette(t *testing.T) {
	a, b := mk("a", 1), mk("b", 1)
	b.Color = "red"
	vs, _ := Build([]stack.StackedSeries{a, b, mk("c", 1)}, nil, Options{Palette: []string{"p0", "p1"}})
	assert.Equal(t, []string{"p0", "red", "p0"}, []string{vs[0].Color, vs[1].Color, vs[2].Color})
	assert.Equal(t, 2, vs[2].Slot)
}

func TestDisplayValue(t *testing.T) {
	s := mk("a", 1, 2.5, math.NaN())
	tests := []struct {
		name     string
		category any
		want     DisplayValue
	}{
		{"last non-missing", nil, DisplayValue{Category: 1.0, Y1: 2.5, Label: "2.5", Valid: true}},
		{"at category", 0, DisplayValue{Category: 0.0, Y1: 1, Label: "1", Valid: true}},
		{"missing at category", 2, DisplayValue{Category: 2}},
		{"unknown category", 9, DisplayValue{Category: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, _ := Build([]stack.StackedSeries{s}, nil, Options{Category: tt.category})
			require.Len(t, vs, 1)
			if got := vs[0].Value; got != tt.want {
				t.Errorf("Value = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDisplayValueSkipsFilledAndShowsBand(t *testing.T) {
	s := mk("a", 1, 2)
	s.Data[0].Y0, s.Data[0].Banded = 0.5, true
	s.Data[1].Filled = true

	vs, _ := Build([]stack.StackedSeries{s}, nil, Options{Format: func(v any) string { return fmt.Sprintf("%.2f", v) }})
	v := vs[0].Value
	assert.True(t, v.Valid)
	assert.Equal(t, 1.0, v.Y1)
	assert.Equal(t, 0.5, v.Y0)
	assert.True(t, v.Banded)
	assert.Equal(t, "1.00", v.Label)

	vs, _ = Build([]stack.StackedSeries{mk("b", math.NaN())}, nil, Options{})
	assert.False(t, vs[0].Value.Valid)
}

func TestNamesOverride(t *testing.T) {
	vs, _ := Build([]stack.StackedSeries{mk("a", 1), mk("b", 1)}, nil, Options{Names: map[string]string{"b": "Bravo"}})
	assert.Equal(t, "a", vs[0].Name)
	assert.Equal(t, "Bravo", vs[1].Name)
}
