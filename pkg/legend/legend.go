// Package legend summarizes the resolved series of a chart for a legend:
// identity, display name, color slot and current display value.
//
// Color slots live in a [ColorAssignment] that the caller owns and passes
// back on the next run, so a series keeps its color while other series
// appear and disappear. Nothing in this package keeps state between calls.
package legend

import (
	"maps"

	"github.com/samber/lo"

	"github.com/matzehuels/chartflow/pkg/series"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
	"github.com/matzehuels/chartflow/pkg/ticks"
)

// DefaultPalette is used when the chart declares none.
var DefaultPalette = []string{
	"#54B399", "#6092C0", "#D36086", "#9170B8", "#CA8EAE",
	"#D6BF57", "#B9A888", "#DA8B45", "#AA6556", "#E7664C",
}

// ColorAssignment maps series keys to palette slots.
type ColorAssignment map[string]int

// Retain returns a copy of a holding only the given keys, freeing the
// slots of every other series.
func (a ColorAssignment) Retain(keys ...string) ColorAssignment {
	keep := lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })
	return lo.PickBy(a, func(k string, _ int) bool {
		_, ok := keep[k]
		return ok
	})
}

// DisplayValue is the value a legend shows next to a series.
type DisplayValue struct {
	Category any     `json:"category"`
	Y1       float64 `json:"y1"`
	Y0       float64 `json:"y0,omitempty"`
	Banded   bool    `json:"banded,omitempty"`
	Label    string  `json:"label"`
	// Valid is false when the series has no value to show.
	Valid bool `json:"valid"`
}

// SeriesCollectionValue is one legend entry.
type SeriesCollectionValue struct {
	series.Identifier
	GroupID string          `json:"group_id"`
	Kind    spec.SeriesKind `json:"kind"`
	Name    string          `json:"name"`
	Slot    int             `json:"slot"`
	Color   string          `json:"color"`
	Value   DisplayValue    `json:"value"`
}

// Options control [Build].
type Options struct {
	// Palette defaults to DefaultPalette. Slots wrap around it.
	Palette []string
	// Names overrides display names by series key.
	Names map[string]string
	// Category selects the datum to display. Nil shows the last value.
	Category any
	// Format renders display values; nil uses ticks.FormatNumber.
	Format spec.Formatter
}

// Build returns one entry per series, in input order, and the updated
// color assignment. Keys already in assigned keep their slot; new keys
// take the lowest free slot. assigned is not modified.
func Build(ss []stack.StackedSeries, assigned ColorAssignment, opts Options) ([]SeriesCollectionValue, ColorAssignment) {
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	out := ColorAssignment{}
	if assigned != nil {
		out = maps.Clone(assigned)
	}
	used := lo.SliceToMap(lo.Values(out), func(slot int) (int, struct{}) { return slot, struct{}{} })

	values := make([]SeriesCollectionValue, 0, len(ss))
	for i := range ss {
		s := &ss[i]
		slot, ok := out[s.Key]
		if !ok {
			for {
				if _, taken := used[slot]; !taken {
					break
				}
				slot++
			}
			out[s.Key] = slot
			used[slot] = struct{}{}
		}

		color := s.Color
		if color == "" {
			color = palette[slot%len(palette)]
		}
		name := s.Name
		if n, ok := opts.Names[s.Key]; ok {
			name = n
		}
		values = append(values, SeriesCollectionValue{
			Identifier: s.Identifier,
			GroupID:    s.GroupID,
			Kind:       s.Kind,
			Name:       name,
			Slot:       slot,
			Color:      color,
			Value:      displayValue(s.Data, opts),
		})
	}
	return values, out
}

// displayValue picks the datum at opts.Category, or the last datum with a
// real value. Missing and filled data have nothing to show.
func displayValue(data []stack.Datum, opts Options) DisplayValue {
	var d stack.Datum
	var found bool
	if opts.Category != nil {
		want := spec.Key(opts.Category)
		d, found = lo.Find(data, func(d stack.Datum) bool { return d.Category == want })
	} else {
		d, _, found = lo.FindLastIndexOf(data, func(d stack.Datum) bool { return !d.Missing && !d.Filled })
	}
	if !found || d.Missing || d.Filled {
		return DisplayValue{Category: opts.Category}
	}

	format := opts.Format
	if format == nil {
		format = func(v any) string { return ticks.FormatNumber(v.(float64)) }
	}
	v := DisplayValue{Category: d.Category, Y1: d.Base, Label: format(d.Base), Valid: true}
	if d.Banded {
		v.Y0, v.Banded = d.Y0, true
	}
	return v
}
