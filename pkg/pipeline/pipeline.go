// Package pipeline runs the chart computation end to end and packages the
// result as an immutable snapshot.
//
// # Stages
//
// An XY run resolves every series spec into data series, computes the
// shared x domain, aligns and fits the series along it, stacks them,
// computes one y domain per axis group, builds the scales and derives
// ticks, geometry and the legend:
//
//	series → domains(x) → align/fit → stack → domains(y) → scales → ticks → geometry → legend
//
// A partition run folds rows through the partition layers and lays out
// the tree.
//
// Recoverable conditions never abort a run. They are collected as
// diagnostics on the snapshot, logged at warn level and reported to the
// pipeline hooks. Only structurally invalid input is returned as an error.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger, observability.Hooks{})
//	snap, err := runner.Run(ctx, chart, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, g := range snap.Geometries {
//	    draw(g)
//	}
//
// Runs share nothing: the runner holds only its cache, keyer, logger and
// hooks, and may be used from several goroutines at once.
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chartflow/pkg/cache"
	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/geometry"
	"github.com/matzehuels/chartflow/pkg/legend"
	"github.com/matzehuels/chartflow/pkg/partition"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
	"github.com/matzehuels/chartflow/pkg/ticks"
)

// Defaults applied to settings a chart leaves at zero.
const (
	DefaultWidth       = 800.0
	DefaultHeight      = 600.0
	DefaultTickCount   = ticks.DefaultCount
	DefaultPointRadius = geometry.DefaultPointRadius
	DefaultBarsPadding = 0.25
)

// Options configure one run.
type Options struct {
	// Width and Height replace a chart's zero frame size.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// TickCount is used by axes that do not ask for a count.
	TickCount   int     `json:"tick_count,omitempty"`
	PointRadius float64 `json:"point_radius,omitempty"`
	BarsPadding float64 `json:"bars_padding,omitempty"`

	// Colors is the color assignment returned by the previous run.
	Colors legend.ColorAssignment `json:"colors,omitempty"`
	// LegendCategory selects the datum the legend displays; nil shows the
	// last value of each series.
	LegendCategory any `json:"legend_category,omitempty"`
	// LegendRule groups partition legend entries.
	LegendRule partition.LegendRule `json:"legend_rule,omitempty"`

	// ChartHash identifies the input for caching. When empty, XY runs
	// hash the serialized chart and partition runs are not cached.
	ChartHash string `json:"-"`
	// Revision is a caller revision folded into the snapshot revision.
	Revision uint64 `json:"-"`
	// Refresh skips cache reads but still writes the result.
	Refresh bool `json:"-"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills zero fields. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if o.TickCount < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "tick count must not be negative, got %d", o.TickCount)
	}
	if o.TickCount == 0 {
		o.TickCount = DefaultTickCount
	}
	if o.PointRadius == 0 {
		o.PointRadius = DefaultPointRadius
	}
	if o.BarsPadding == 0 {
		o.BarsPadding = DefaultBarsPadding
	}
	if o.BarsPadding < 0 || o.BarsPadding >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "bars padding must be in [0, 1), got %g", o.BarsPadding)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// settings fills the zero fields of s from o.
func (o *Options) settings(s spec.Settings) spec.Settings {
	if s.Width == 0 {
		s.Width = o.Width
	}
	if s.Height == 0 {
		s.Height = o.Height
	}
	if s.PointRadius == 0 {
		s.PointRadius = o.PointRadius
	}
	if s.BarsPadding == 0 {
		s.BarsPadding = o.BarsPadding
	}
	if len(s.Palette) == 0 {
		s.Palette = legend.DefaultPalette
	}
	return s
}

func (o *Options) snapshotKeyOpts() cache.SnapshotKeyOpts {
	return cache.SnapshotKeyOpts{
		Width:     o.Width,
		Height:    o.Height,
		TickCount: o.TickCount,
		Legend:    []any{o.Colors, o.LegendCategory, o.PointRadius, o.BarsPadding},
	}
}

// Axis is the computed state of one declared axis.
type Axis struct {
	ID       string        `json:"id"`
	GroupID  string        `json:"group_id"`
	Position spec.Position `json:"position"`
	Title    string        `json:"title,omitempty"`
	// IsX is set for the axis that shows the x domain.
	IsX bool `json:"is_x"`
	// Hidden is set for axes declared hidden and for duplicates removed by
	// Settings.HideDuplicateAxes.
	Hidden  bool         `json:"hidden,omitempty"`
	Ticks   []ticks.Tick `json:"ticks"`
	Overlap bool         `json:"overlap,omitempty"`
}

// Snapshot is the immutable result of one XY run.
type Snapshot struct {
	Revision string `json:"revision"`

	// Width and Height are the plot area, margins removed.
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`

	XDomain  domain.Domain            `json:"x_domain"`
	YDomains map[string]domain.Domain `json:"y_domains"`
	// ScaleTypes holds the effective scale type of x and of each group,
	// after any downgrade.
	ScaleTypes map[string]spec.ScaleType `json:"scale_types"`

	Axes       []Axis                         `json:"axes"`
	Stacks     []stack.Group                  `json:"stacks,omitempty"`
	Geometries []geometry.Geometry            `json:"geometries"`
	Legend     []legend.SeriesCollectionValue `json:"legend"`
	Colors     legend.ColorAssignment         `json:"colors"`

	Diagnostics errors.Diagnostics `json:"diagnostics,omitempty"`

	// Cached is set when the snapshot came from the cache.
	Cached bool `json:"-"`
}

// Pick returns the primitives under the plot position (x, y).
func (s *Snapshot) Pick(x, y, tolerance float64) []geometry.Ref {
	return geometry.NewIndex(s.Geometries).Pick(x, y, tolerance)
}

// attachRaw points every geometry back-reference at its source row in
// reg. Raw rows are not serialized, so cached snapshots come back without
// them.
func (s *Snapshot) attachRaw(reg *spec.Registry) {
	data := make(map[string][]any)
	for _, ss := range reg.Series() {
		data[ss.ID] = ss.Data
	}
	fill := func(r *geometry.Ref) {
		if rows := data[r.SpecID]; r.Row >= 0 && r.Row < len(rows) {
			r.Raw = rows[r.Row]
		}
	}
	for gi := range s.Geometries {
		g := &s.Geometries[gi]
		for i := range g.Bars {
			fill(&g.Bars[i].Ref)
		}
		for i := range g.Points {
			fill(&g.Points[i].Ref)
		}
		for _, seg := range g.Segments {
			for i := range seg {
				fill(&seg[i].Ref)
			}
		}
	}
}

// PartitionSnapshot is the result of one partition run.
type PartitionSnapshot struct {
	Revision    string                 `json:"revision"`
	Tree        *partition.Tree        `json:"tree"`
	Legend      []partition.LegendItem `json:"legend,omitempty"`
	Diagnostics errors.Diagnostics     `json:"diagnostics,omitempty"`
	Cached      bool                   `json:"-"`
}

// Pick returns the click payload of the node under (x, y), if any.
func (s *PartitionSnapshot) Pick(x, y float64, specID string) (partition.Picked, bool) {
	if s.Tree == nil {
		return partition.Picked{}, false
	}
	i, ok := s.Tree.Pick(x, y)
	if !ok {
		return partition.Picked{}, false
	}
	return s.Tree.Picked(i, specID), true
}
