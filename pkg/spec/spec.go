// Package spec holds the declarative chart model: series and axis
// specifications, chart settings, and the [Registry] that normalizes them.
//
// Specs are plain values. A [Registry] is populated by one explicit call per
// spec ([Registry.AddSeries], [Registry.AddAxis]) and never inspects anything
// but the resolved spec list. Every mutation bumps [Registry.Revision], which
// the pipeline uses to key complete snapshots.
//
// # Accessors
//
// Field access is expressed with the [Accessor] variant:
//
//	spec.Path("metrics.cpu") // property path on maps or raw JSON rows
//	spec.Index(3)            // positional access on array rows
//	spec.Func("total", func(d any) any { ... })
//
// All three resolve through [Accessor.Resolve], so the rest of the pipeline
// never cares which shape was declared.
package spec

// DefaultGroupID is the axis group used when a spec does not name one.
const DefaultGroupID = "__global__"

// SeriesKind is the renderable kind of an XY series.
type SeriesKind string

const (
	KindBar   SeriesKind = "bar"
	KindLine  SeriesKind = "line"
	KindArea  SeriesKind = "area"
	KindPoint SeriesKind = "point"
)

// ScaleType selects the mapping used for a domain.
type ScaleType string

const (
	ScaleLinear  ScaleType = "linear"
	ScaleLog     ScaleType = "log"
	ScaleTime    ScaleType = "time"
	ScaleOrdinal ScaleType = "ordinal"
)

// IsContinuous reports whether the scale maps a numeric interval.
func (t ScaleType) IsContinuous() bool { return t != ScaleOrdinal }

// StackMode selects how series sharing a stack key are combined.
type StackMode string

const (
	StackNone       StackMode = "none"
	StackStacked    StackMode = "stacked"
	StackPercentage StackMode = "percentage"
	StackSilhouette StackMode = "silhouette"
	StackWiggle     StackMode = "wiggle"
)

// Curve names the interpolation applied to line and area paths.
type Curve string

const (
	CurveLinear     Curve = "linear"
	CurveMonotoneX  Curve = "monotone-x"
	CurveStep       Curve = "step"
	CurveStepBefore Curve = "step-before"
	CurveStepAfter  Curve = "step-after"
	CurveBasis      Curve = "basis"
	CurveCardinal   Curve = "cardinal"
	CurveNatural    Curve = "natural"
)

// Position is the side of the chart an axis is attached to.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

// IsHorizontal reports whether the axis runs along the horizontal edge.
func (p Position) IsHorizontal() bool { return p == PositionTop || p == PositionBottom }

// IsXAxis reports whether an axis at p shows the x domain for the given
// chart rotation. Rotating by ±90 degrees swaps the x and y axes.
func IsXAxis(p Position, rotation int) bool {
	if rotation == 90 || rotation == -90 {
		return !p.IsHorizontal()
	}
	return p.IsHorizontal()
}

// DomainOverride replaces parts of a computed domain.
type DomainOverride struct {
	Min *float64 `json:"min,omitempty" toml:"min" yaml:"min"`
	Max *float64 `json:"max,omitempty" toml:"max" yaml:"max"`

	// Fit makes the computed side(s) match the data bounds exactly
	// instead of being extended to include zero.
	Fit bool `json:"fit,omitempty" toml:"fit" yaml:"fit"`

	// Categories is an explicit ordinal domain. Values may mix types.
	Categories []any `json:"categories,omitempty" toml:"categories" yaml:"categories"`
}

// SeriesSpec declares one XY series.
type SeriesSpec struct {
	ID      string     `json:"id" validate:"required"`
	GroupID string     `json:"group_id,omitempty"`
	Kind    SeriesKind `json:"kind" validate:"required,oneof=bar line area point"`
	Name    string     `json:"name,omitempty"`

	Data []any `json:"data,omitempty"`

	X           Accessor   `json:"x"`
	Y           []Accessor `json:"y"`
	Y0          []Accessor `json:"y0,omitempty"`
	SplitSeries []Accessor `json:"split,omitempty"`
	Stack       []Accessor `json:"stack,omitempty"`

	StackMode  StackMode `json:"stack_mode,omitempty" validate:"omitempty,oneof=none stacked percentage silhouette wiggle"`
	XScaleType ScaleType `json:"x_scale,omitempty" validate:"omitempty,oneof=linear log time ordinal"`
	YScaleType ScaleType `json:"y_scale,omitempty" validate:"omitempty,oneof=linear log time"`
	Fit        Fit       `json:"fit,omitempty"`
	Curve      Curve     `json:"curve,omitempty" validate:"omitempty,oneof=linear monotone-x step step-before step-after basis cardinal natural"`

	// SortIndex places the series inside its stack. Series without one
	// keep declaration order after those that have one.
	SortIndex *int `json:"sort_index,omitempty"`

	// Color overrides the palette slot assigned by the legend.
	Color string `json:"color,omitempty"`
}

// IsStacked reports whether the series takes part in a stack.
func (s *SeriesSpec) IsStacked() bool {
	return len(s.Stack) > 0 && s.StackMode != StackNone
}

// DisplayName returns Name, falling back to ID.
func (s *SeriesSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Formatter turns a tick or legend value into a label.
type Formatter func(v any) string

// AxisSpec declares one axis.
type AxisSpec struct {
	ID       string          `json:"id" validate:"required"`
	GroupID  string          `json:"group_id,omitempty"`
	Position Position        `json:"position" validate:"required,oneof=top bottom left right"`
	Title    string          `json:"title,omitempty"`
	Domain   *DomainOverride `json:"domain,omitempty"`

	// Ticks is the approximate number of ticks wanted; 0 uses the default.
	Ticks     int       `json:"ticks,omitempty" validate:"gte=0"`
	Format    string    `json:"format,omitempty"`
	Formatter Formatter `json:"-"`
	Rotation  float64   `json:"rotation,omitempty"`

	ShowDuplicatedTicks   bool `json:"show_duplicated_ticks,omitempty"`
	ShowOverlappingTicks  bool `json:"show_overlapping_ticks,omitempty"`
	ShowOverlappingLabels bool `json:"show_overlapping_labels,omitempty"`
	Hide                  bool `json:"hide,omitempty"`
}

// Margins are the pixel insets between the chart frame and the plot area.
type Margins struct {
	Top    float64 `json:"top" toml:"top" yaml:"top"`
	Right  float64 `json:"right" toml:"right" yaml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" toml:"left" yaml:"left"`
}

// Padding is the inner/outer padding of ordinal bands as a fraction of the step.
type Padding struct {
	Inner float64 `json:"inner" toml:"inner" yaml:"inner"`
	Outer float64 `json:"outer" toml:"outer" yaml:"outer"`
}

// Settings are chart-wide options.
type Settings struct {
	Rotation       int             `json:"rotation,omitempty"`
	XDomain        *DomainOverride `json:"x_domain,omitempty"`
	Width          float64         `json:"width,omitempty"`
	Height         float64         `json:"height,omitempty"`
	Margins        Margins         `json:"margins,omitempty"`
	BarsPadding    float64         `json:"bars_padding,omitempty"`
	OrdinalPadding Padding         `json:"ordinal_padding,omitempty"`
	PointRadius    float64         `json:"point_radius,omitempty"`
	LogBase        float64         `json:"log_base,omitempty"` // whole number >= 2, default 10
	FontSize       float64         `json:"font_size,omitempty"`
	Palette        []string        `json:"palette,omitempty"`

	// HideDuplicateAxes hides an axis whose position and labels match
	// an axis declared before it.
	HideDuplicateAxes bool `json:"hide_duplicate_axes,omitempty"`
}

// PlotArea returns the plot rectangle size after margins.
func (s Settings) PlotArea() (width, height float64) {
	width = s.Width - s.Margins.Left - s.Margins.Right
	height = s.Height - s.Margins.Top - s.Margins.Bottom
	return max(width, 0), max(height, 0)
}

// Chart is a complete XY chart declaration.
type Chart struct {
	Series   []SeriesSpec `json:"series"`
	Axes     []AxisSpec   `json:"axes,omitempty"`
	Settings Settings     `json:"settings"`
}
