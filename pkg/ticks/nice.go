package ticks

import (
	"math"

	mscale "github.com/aclements/go-moremath/scale"
)

// niceTicker places ticks at multiples of 1, 2 or 5 times a power of ten.
// Level l has step {1, 2, 5}[l mod 3] * 10^floor(l/3); higher levels have
// fewer ticks.
type niceTicker struct {
	min, max float64
}

var _ mscale.Ticker = niceTicker{}

var mantissas = [3]float64{1, 2, 5}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// stepAt returns the mantissa and decimal exponent of the step at level.
func stepAt(level int) (mant float64, exp int) {
	exp = floorDiv(level, 3)
	return mantissas[level-exp*3], exp
}

// multiple returns k * mant * 10^exp, dividing for negative exponents so
// that values such as 0.1 and 0.3 come out exact.
func multiple(k, mant float64, exp int) float64 {
	if exp < 0 {
		return k * mant / math.Pow10(-exp)
	}
	return k * mant * math.Pow10(exp)
}

func (t niceTicker) bounds(level int) (first, last float64) {
	mant, exp := stepAt(level)
	step := multiple(1, mant, exp)
	slack := (t.max - t.min) * 1e-10
	return math.Ceil((t.min - slack) / step), math.Floor((t.max + slack) / step)
}

func (t niceTicker) CountTicks(level int) int {
	first, last := t.bounds(level)
	return int(last - first + 1)
}

func (t niceTicker) TicksAtLevel(level int) interface{} {
	first, last := t.bounds(level)
	mant, exp := stepAt(level)
	out := make([]float64, 0, int(last-first+1))
	for k := first; k <= last; k++ {
		v := multiple(k, mant, exp)
		if v == 0 {
			v = 0 // normalize -0
		}
		out = append(out, v)
	}
	return out
}

// guess starts the level search near one tick per decade of the span.
func (t niceTicker) guess() int {
	span := t.max - t.min
	if span <= 0 {
		return 0
	}
	return 3 * int(math.Floor(math.Log10(span)))
}

// StepDigits returns the number of decimals needed to print ticks at level.
func StepDigits(level int) int {
	_, exp := stepAt(level)
	return max(0, -exp)
}

// niceValues returns the nice tick values in [lo, hi] for about count
// ticks, and the level they were taken from.
func niceValues(lo, hi float64, count int) ([]float64, int) {
	if lo == hi {
		return []float64{lo}, 0
	}
	t := niceTicker{min: lo, max: hi}
	opts := mscale.TickOptions{Max: count + 1}
	level, ok := opts.FindLevel(t, t.guess())
	if !ok {
		return []float64{lo, hi}, 0
	}
	return t.TicksAtLevel(level).([]float64), level
}
