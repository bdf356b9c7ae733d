// Package ticks derives axis ticks and their labels from a scale.
//
// Continuous scales get "nice" values at 1, 2 or 5 times a power of ten,
// log scales get powers of the base, time scales step along calendar
// boundaries in UTC and ordinal scales get one tick per category. Labels
// are measured to report, and optionally avoid, overlapping text.
package ticks

import (
	"math"
	"sort"

	mscale "github.com/aclements/go-moremath/scale"

	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// DefaultCount is the target tick count when none is given.
const DefaultCount = 10

// maxLevelSteps bounds how far the level search climbs to avoid
// overlapping labels.
const maxLevelSteps = 12

// Tick is one labeled reference point on an axis.
type Tick struct {
	Value    any     `json:"value"`
	Label    string  `json:"label"`
	Position float64 `json:"position"`
}

// Options controls tick generation.
type Options struct {
	Count     int
	Formatter spec.Formatter

	ShowOverlappingTicks  bool
	ShowDuplicatedTicks   bool
	ShowOverlappingLabels bool

	// Rotation is the label rotation in degrees.
	Rotation float64
	FontSize float64
	Padding  float64

	// Vertical is set for axes that run along the y direction of the
	// plot, where label height rather than width consumes axis space.
	Vertical bool
}

func (o Options) withDefaults() Options {
	if o.Count <= 0 {
		o.Count = DefaultCount
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Padding < 0 {
		o.Padding = 0
	} else if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	return o
}

// Result holds the generated ticks and whether any two adjacent labels
// overlap at the requested rotation.
type Result struct {
	Ticks   []Tick `json:"ticks"`
	Overlap bool   `json:"overlap"`
}

// Generate returns the ticks for s, ordered by ascending position.
// Overlap reports whether labels at the requested density collide. Unless
// ShowOverlappingLabels is set, the returned ticks are thinned so that
// they do not.
func Generate(s scale.Scale, opts Options) Result {
	opts = opts.withDefaults()

	ticks := candidates(s, opts, false)
	res := Result{Ticks: ticks, Overlap: collides(ticks, opts)}
	if res.Overlap && !opts.ShowOverlappingLabels {
		res.Ticks = dropOverlapping(candidates(s, opts, true), opts)
	}
	return res
}

func candidates(s scale.Scale, opts Options, sparse bool) []Tick {
	var ticks []Tick
	switch s.Type() {
	case spec.ScaleOrdinal:
		ticks = ordinalTicks(s, opts)
	case spec.ScaleLog:
		ticks = logTicks(s, opts)
	case spec.ScaleTime:
		ticks = timeTicks(s, opts)
	default:
		ticks = linearTicks(s, opts, sparse)
	}
	sortByPosition(ticks)
	if !opts.ShowDuplicatedTicks {
		ticks = Dedupe(ticks)
	}
	return ticks
}

// Dedupe collapses runs of consecutive ticks with identical labels into
// their first tick. Dedupe(Dedupe(t)) equals Dedupe(t).
func Dedupe(ticks []Tick) []Tick {
	if len(ticks) < 2 {
		return ticks
	}
	out := make([]Tick, 0, len(ticks))
	for i, t := range ticks {
		if i > 0 && t.Label == out[len(out)-1].Label {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sortByPosition(ticks []Tick) {
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].Position < ticks[j].Position })
}

func collides(ticks []Tick, opts Options) bool {
	for i := 1; i < len(ticks); i++ {
		if overlaps(ticks[i-1], ticks[i], opts) {
			return true
		}
	}
	return false
}

// dropOverlapping keeps the first tick and every later tick whose label
// clears the last kept one.
func dropOverlapping(ticks []Tick, opts Options) []Tick {
	if len(ticks) < 2 {
		return ticks
	}
	out := []Tick{ticks[0]}
	for _, t := range ticks[1:] {
		if !overlaps(out[len(out)-1], t, opts) {
			out = append(out, t)
		}
	}
	return out
}

func label(opts Options, v any, fallback func() string) string {
	if opts.Formatter != nil {
		return opts.Formatter(v)
	}
	return fallback()
}

func numericTick(s scale.Scale, opts Options, v float64) (Tick, bool) {
	px, ok := s.Scale(v)
	if !ok {
		return Tick{}, false
	}
	return Tick{
		Value:    v,
		Label:    label(opts, v, func() string { return FormatNumber(v) }),
		Position: px + s.Bandwidth()/2,
	}, true
}

func numericTicks(s scale.Scale, opts Options, vals []float64) []Tick {
	out := make([]Tick, 0, len(vals))
	for _, v := range vals {
		if t, ok := numericTick(s, opts, v); ok {
			out = append(out, t)
		}
	}
	return out
}

// linearTicks picks the densest nice level within the target count. With
// sparse set it climbs to coarser levels until labels stop colliding.
func linearTicks(s scale.Scale, opts Options, sparse bool) []Tick {
	d := s.Domain()
	t := niceTicker{min: d.Min, max: d.Max}
	if d.Min == d.Max {
		return withBounds(s, opts, numericTicks(s, opts, []float64{d.Min}))
	}
	to := mscale.TickOptions{Max: opts.Count + 1}
	level, ok := to.FindLevel(t, t.guess())
	if !ok {
		return withBounds(s, opts, nil)
	}
	ticks := numericTicks(s, opts, t.TicksAtLevel(level).([]float64))
	if sparse {
		for i := 0; i < maxLevelSteps && collides(ticks, opts) && t.CountTicks(level+1) >= 2; i++ {
			level++
			ticks = numericTicks(s, opts, t.TicksAtLevel(level).([]float64))
			sortByPosition(ticks)
		}
	}
	return withBounds(s, opts, ticks)
}

// withBounds adds the domain bounds as ticks. Unless overlapping ticks
// are shown, a bound is dropped when its label would overlap the nearest
// interior tick.
func withBounds(s scale.Scale, opts Options, ticks []Tick) []Tick {
	d := s.Domain()
	eps := math.Abs(d.Max-d.Min) * 1e-10
	sortByPosition(ticks)

	has := func(v float64) bool {
		for _, t := range ticks {
			if f, ok := t.Value.(float64); ok && math.Abs(f-v) <= eps {
				return true
			}
		}
		return false
	}
	for _, b := range []float64{d.Min, d.Max} {
		if has(b) {
			continue
		}
		bt, ok := numericTick(s, opts, b)
		if !ok {
			continue
		}
		if !opts.ShowOverlappingTicks && nearestOverlaps(bt, ticks, opts) {
			continue
		}
		ticks = append(ticks, bt)
		sortByPosition(ticks)
	}
	return ticks
}

func nearestOverlaps(bt Tick, ticks []Tick, opts Options) bool {
	best, dist := -1, math.Inf(1)
	for i, t := range ticks {
		if d := math.Abs(t.Position - bt.Position); d < dist {
			best, dist = i, d
		}
	}
	return best >= 0 && overlaps(bt, ticks[best], opts)
}

func logTicks(s scale.Scale, opts Options) []Tick {
	d := s.Domain()
	base := scale.DefaultLogBase
	if lb, ok := s.(interface{ LogBase() int }); ok && lb.LogBase() >= 2 {
		base = lb.LogBase()
	}
	l, err := mscale.NewLog(d.Min, d.Max, base)
	if err != nil {
		return linearTicks(s, opts, false)
	}
	major, minor := l.Ticks(mscale.TickOptions{Max: opts.Count + 1})
	vals := major
	if len(vals) < 2 {
		// Too sparse: fall back to 1, 2 and 5 subdivisions of each decade.
		vals = vals[:0:0]
		for _, v := range minor {
			if base != 10 || isMantissa125(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) < 2 {
			vals = minor
		}
	}
	return withBounds(s, opts, numericTicks(s, opts, vals))
}

func isMantissa125(v float64) bool {
	v = math.Abs(v)
	if v == 0 {
		return false
	}
	m := v / math.Pow10(int(math.Floor(math.Log10(v))))
	for _, want := range mantissas {
		if math.Abs(m-want) < 1e-9 {
			return true
		}
	}
	return false
}

func timeTicks(s scale.Scale, opts Options) []Tick {
	d := s.Domain()
	vals, layout := timeValues(d.Min, d.Max, opts.Count)
	fallback := TimeFormatter(layout)
	out := make([]Tick, 0, len(vals))
	for _, v := range vals {
		px, ok := s.Scale(v)
		if !ok {
			continue
		}
		out = append(out, Tick{
			Value:    v,
			Label:    label(opts, v, func() string { return fallback(v) }),
			Position: px + s.Bandwidth()/2,
		})
	}
	return out
}

func ordinalTicks(s scale.Scale, opts Options) []Tick {
	cats := s.Domain().Categories
	out := make([]Tick, 0, len(cats))
	for _, c := range cats {
		px, ok := s.Scale(c)
		if !ok {
			continue
		}
		out = append(out, Tick{
			Value:    c,
			Label:    label(opts, c, func() string { return spec.FormatKey(c) }),
			Position: px + s.Bandwidth()/2,
		})
	}
	return out
}
