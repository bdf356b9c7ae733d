package series

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

func rows(vals ...[2]any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = map[string]any{"x": v[0], "y": v[1]}
	}
	return out
}

func TestExtractSingleSeries(t *testing.T) {
	s := spec.SeriesSpec{
		ID:   "a",
		Kind: spec.KindLine,
		X:    spec.Path("x"),
		Y:    []spec.Accessor{spec.Path("y")},
		Data: rows([2]any{0, 2}, [2]any{1, 7}, [2]any{2, nil}, [2]any{3, 6}),
	}
	var diags errors.Diagnostics
	got := Extract(s, &diags)
	require.Len(t, got, 1)

	pts := got[0].Points
	require.Len(t, pts, 4)
	assert.Equal(t, "a", got[0].Key)
	assert.Equal(t, 7.0, pts[1].Y1)
	assert.True(t, pts[2].Missing)
	assert.Equal(t, 3.0, pts[3].X)
	assert.True(t, diags.Has(errors.ErrCodeAccessorResolution))
}

func TestExtractDropsRowsWithoutX(t *testing.T) {
	s := spec.SeriesSpec{
		ID:   "a",
		Kind: spec.KindBar,
		X:    spec.Path("x"),
		Y:    []spec.Accessor{spec.Path("y")},
		Data: []any{map[string]any{"y": 1.0}, map[string]any{"x": "b", "y": 2.0}},
	}
	var diags errors.Diagnostics
	got := Extract(s, &diags)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Points, 1)
	assert.Equal(t, 1, got[0].Points[0].Row)
	assert.Len(t, diags.Filter(errors.ErrCodeAccessorResolution), 1)
}

func TestExtractSplitsAndMultipleY(t *testing.T) {
	data := []any{
		json.RawMessage(`{"x": "mon", "host": "a", "in": 1, "out": 2}`),
		json.RawMessage(`{"x": "mon", "host": "b", "in": 3, "out": 4}`),
		json.RawMessage(`{"x": "tue", "host": "a", "in": 5, "out": 6}`),
	}
	s := spec.SeriesSpec{
		ID:          "net",
		Kind:        spec.KindBar,
		X:           spec.Path("x"),
		Y:           []spec.Accessor{spec.Path("in"), spec.Path("out")},
		SplitSeries: []spec.Accessor{spec.Path("host")},
		Data:        data,
	}
	got := Extract(s, nil)
	require.Len(t, got, 4)

	keys := make([]string, len(got))
	for i, g := range got {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"net/a|in", "net/a|out", "net/b|in", "net/b|out"}, keys)
	assert.Equal(t, "a - out", got[1].Name)
	assert.Len(t, got[0].Points, 2)
	assert.Equal(t, 5.0, got[0].Points[1].Y1)
}

func TestExtractPositionalRows(t *testing.T) {
	s := spec.SeriesSpec{
		ID:   "p",
		Kind: spec.KindPoint,
		X:    spec.Index(0),
		Y:    []spec.Accessor{spec.Index(1)},
		Y0:   []spec.Accessor{spec.Index(2)},
		Data: []any{[]any{1, 5, 2}, []any{2, 6, nil}},
	}
	got := Extract(s, nil)
	require.Len(t, got, 1)
	p := got[0].Points
	assert.True(t, p[0].HasY0)
	assert.Equal(t, 2.0, p[0].Y0)
	assert.False(t, p[1].HasY0)
}

func TestAlign(t *testing.T) {
	s := Series{Points: []DataPoint{
		{X: "b", Y1: 2},
		{X: "a", Y1: 1},
		{X: "a", Y1: 9},
		{X: "z", Y1: 5},
	}}
	Align(&s, []any{"a", "b", "c"}, true)
	require.Len(t, s.Points, 3)
	assert.Equal(t, 9.0, s.Points[0].Y1, "last duplicate wins")
	assert.Equal(t, 2.0, s.Points[1].Y1)
	assert.True(t, s.Points[2].Missing)
	assert.Equal(t, "c", s.Points[2].X)

	u := Series{Points: []DataPoint{{X: "b"}, {X: "a"}}}
	Align(&u, []any{"a", "b", "c"}, false)
	assert.Len(t, u.Points, 2)
}

func TestSortedXValues(t *testing.T) {
	all := []Series{
		{Points: []DataPoint{{X: 3.0}, {X: 1.0}}},
		{Points: []DataPoint{{X: 2.0}, {X: 1.0}, {X: "n/a"}}},
	}
	assert.Equal(t, []any{1.0, 2.0, 3.0}, SortedXValues(all))
}

func TestStackKey(t *testing.T) {
	s := spec.SeriesSpec{Stack: []spec.Accessor{spec.Path("x")}, StackMode: spec.StackStacked}
	if got := StackKey(&s); got != "x" {
		t.Errorf("StackKey() = %q, want %q", got, "x")
	}
	s.StackMode = spec.StackNone
	if got := StackKey(&s); got != "" {
		t.Errorf("StackKey(none) = %q, want empty", got)
	}
}
