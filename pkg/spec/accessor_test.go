package spec

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorResolve(t *testing.T) {
	record := map[string]any{
		"x":    1.0,
		"y":    nil,
		"meta": map[string]any{"host": "a", "tags": []any{"t0", "t1"}},
	}
	raw := json.RawMessage(`{"x": 4, "nested": {"v": "z"}, "n": null, "arr": [10, 20]}`)

	tests := []struct {
		name   string
		acc    Accessor
		datum  any
		want   any
		wantOK bool
	}{
		{"path on map", Path("x"), record, 1.0, true},
		{"nested path", Path("meta.host"), record, "a", true},
		{"path into slice", Path("meta.tags.1"), record, "t1", true},
		{"null value", Path("y"), record, nil, false},
		{"absent key", Path("nope"), record, nil, false},
		{"index on slice", Index(2), []any{"CN", 301.0, "IN", 44.0}, "IN", true},
		{"index out of range", Index(9), []any{1.0}, nil, false},
		{"index on typed slice", Index(1), []float64{3, 4}, 4.0, true},
		{"raw json path", Path("nested.v"), raw, "z", true},
		{"raw json number", Path("x"), raw, 4.0, true},
		{"raw json null", Path("n"), raw, nil, false},
		{"raw json index path", Path("arr.1"), raw, 20.0, true},
		{"raw json array index", Index(0), json.RawMessage(`["a", 2]`), "a", true},
		{"func", Func("double", func(d any) any { return d.(map[string]any)["x"].(float64) * 2 }), record, 2.0, true},
		{"func nil result", Func("none", func(any) any { return nil }), record, nil, false},
		{"zero accessor", Accessor{}, record, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.acc.Resolve(tt.datum)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessorDoesNotMutateDatum(t *testing.T) {
	row := []any{"a", 1.0}
	_, _ = Index(0).Resolve(row)
	_, _ = Path("1").Resolve(row)
	assert.Equal(t, []any{"a", 1.0}, row)
}

func TestParseAccessor(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{"a.b", "a.b", false},
		{"[3]", "[3]", false},
		{2.0, "[2]", false},
		{7, "[7]", false},
		{nil, "", false},
		{"", "", true},
		{"[x]", "", true},
		{1.5, "", true},
		{true, "", true},
	}
	for _, tt := range tests {
		got, err := ParseAccessor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAccessor(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseAccessor(%v) = %q, want %q", tt.in, got.String(), tt.want)
		}
	}
}

func TestAccessorJSON(t *testing.T) {
	in := []Accessor{Path("a.b"), Index(1)}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `["a.b", 1]`, string(b))

	var out []Accessor
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	b, err = json.Marshal(Func("total", func(any) any { return nil }))
	require.NoError(t, err)
	assert.Equal(t, `"func:total"`, string(b))
}

func TestToFloat(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{1.5, 1.5, true},
		{int64(3), 3, true},
		{uint8(4), 4, true},
		{json.Number("2.5"), 2.5, true},
		{ts, float64(ts.UnixMilli()), true},
		{"3", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToFloat(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestKey(t *testing.T) {
	if Key(1) != Key(1.0) {
		t.Errorf("Key(1) = %v, Key(1.0) = %v, want equal", Key(1), Key(1.0))
	}
	if Key("1") == Key(1) {
		t.Errorf("Key(%q) should differ from Key(1)", "1")
	}
	if got := Key([]any{1, 2}); got != "[1 2]" {
		t.Errorf("Key(slice) = %v, want %q", got, "[1 2]")
	}
	for _, v := range []any{math.NaN(), math.Inf(1), float32(math.Inf(-1))} {
		if got := Key(v); got != nil {
			t.Errorf("Key(%v) = %v, want nil", v, got)
		}
	}
}
