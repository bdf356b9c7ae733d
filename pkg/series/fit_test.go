package series

import (
	"math"
	"testing"

	"github.com/matzehuels/chartflow/pkg/spec"
)

// pts builds points at x = 0..n-1; nil entries are missing.
func pts(ys ...any) []DataPoint {
	out := make([]DataPoint, len(ys))
	for i, y := range ys {
		out[i].X = float64(i)
		if y == nil {
			out[i].Missing = true
			continue
		}
		out[i].Y1 = y.(float64)
	}
	return out
}

func values(p []DataPoint) []any {
	out := make([]any, len(p))
	for i, d := range p {
		if d.Missing {
			continue
		}
		out[i] = d.Y1
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func TestApplyFit(t *testing.T) {
	tests := []struct {
		name string
		fit  spec.Fit
		in   []any
		want []any
	}{
		{"none", spec.Fit{Type: spec.FitNone}, []any{1.0, nil, 3.0}, []any{1.0, nil, 3.0}},
		{"zero", spec.Fit{Type: spec.FitZero}, []any{nil, 1.0, nil}, []any{0.0, 1.0, 0.0}},
		{"explicit", spec.Fit{Type: spec.FitExplicit, Value: 5}, []any{1.0, nil}, []any{1.0, 5.0}},
		{"carry", spec.Fit{Type: spec.FitCarry}, []any{nil, 2.0, nil, nil}, []any{nil, 2.0, 2.0, 2.0}},
		{"lookahead", spec.Fit{Type: spec.FitLookahead}, []any{nil, 2.0, nil, 4.0, nil}, []any{2.0, 2.0, 4.0, 4.0, nil}},
		{"nearest", spec.Fit{Type: spec.FitNearest}, []any{1.0, nil, nil, nil, 9.0}, []any{1.0, 1.0, 1.0, 9.0, 9.0}},
		{"average", spec.Fit{Type: spec.FitAverage}, []any{2.0, nil, nil, 8.0}, []any{2.0, 5.0, 5.0, 8.0}},
		{"linear", spec.Fit{Type: spec.FitLinear}, []any{2.0, nil, nil, 8.0}, []any{2.0, 4.0, 6.0, 8.0}},
		{"linear open ends", spec.Fit{Type: spec.FitLinear}, []any{nil, 2.0, nil, 4.0, nil}, []any{nil, 2.0, 3.0, 4.0, nil}},
		{"linear end value", spec.Fit{Type: spec.FitLinear, EndValue: ptr(0)}, []any{nil, 2.0, nil}, []any{0.0, 2.0, 0.0}},
		{"average end nearest", spec.Fit{Type: spec.FitAverage, EndNearest: true}, []any{nil, 2.0, 4.0, nil}, []any{2.0, 2.0, 4.0, 4.0}},
		{"all missing", spec.Fit{Type: spec.FitCarry}, []any{nil, nil}, []any{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pts(tt.in...)
			ApplyFit(p, tt.fit, true)
			got := values(p)
			for i := range got {
				g, gok := got[i].(float64)
				w, wok := tt.want[i].(float64)
				if gok != wok || math.Abs(g-w) > 1e-9 {
					t.Fatalf("ApplyFit(%s) = %v, want %v", tt.fit, got, tt.want)
				}
			}
		})
	}
}

func TestApplyFitMarksFilled(t *testing.T) {
	p := pts(1.0, nil, 3.0)
	ApplyFit(p, spec.Fit{Type: spec.FitLinear}, true)
	if !p[1].Filled || p[1].Missing {
		t.Errorf("point = %+v, want filled and not missing", p[1])
	}
	if p[0].Filled {
		t.Error("known point marked filled")
	}
}

func TestApplyFitLinearUsesXDistance(t *testing.T) {
	p := []DataPoint{{X: 0.0, Y1: 0}, {X: 1.0, Missing: true}, {X: 4.0, Y1: 8}}
	ApplyFit(p, spec.Fit{Type: spec.FitLinear}, true)
	if math.Abs(p[1].Y1-2) > 1e-9 {
		t.Errorf("linear fit by x = %v, want 2", p[1].Y1)
	}

	q := []DataPoint{{X: "a", Y1: 0}, {X: "b", Missing: true}, {X: "c", Y1: 8}}
	ApplyFit(q, spec.Fit{Type: spec.FitLinear}, false)
	if q[1].Y1 != 4 {
		t.Errorf("linear fit by index = %v, want 4", q[1].Y1)
	}
}
