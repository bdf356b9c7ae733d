package spec

import (
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/matzehuels/chartflow/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry is the normalized in-memory model of one chart. Specs are added
// with one call each; the zero value is not usable, use [NewRegistry].
//
// A Registry is not safe for concurrent mutation. Pipeline runs read it
// through [Registry.Chart], which returns an independent copy.
type Registry struct {
	series   []SeriesSpec
	axes     []AxisSpec
	settings Settings

	seriesIdx map[string]int
	axisIdx   map[string]int
	revision  uint64
}

// NewRegistry returns an empty registry with default settings.
func NewRegistry() *Registry {
	return &Registry{
		seriesIdx: make(map[string]int),
		axisIdx:   make(map[string]int),
	}
}

// FromChart builds a registry from a complete chart declaration.
func FromChart(c Chart) (*Registry, error) {
	r := NewRegistry()
	if err := r.SetSettings(c.Settings); err != nil {
		return nil, err
	}
	for _, s := range c.Series {
		if err := r.AddSeries(s); err != nil {
			return nil, err
		}
	}
	for _, a := range c.Axes {
		if err := r.AddAxis(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// AddSeries validates s, applies defaults and registers it.
func (r *Registry) AddSeries(s SeriesSpec) error {
	if err := errors.ValidateID("series", s.ID); err != nil {
		return err
	}
	if _, dup := r.seriesIdx[s.ID]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate series id %q", s.ID)
	}
	if err := validateStruct("series "+s.ID, s); err != nil {
		return err
	}
	if s.X.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "series %q has no x accessor", s.ID)
	}
	if len(s.Y) == 0 || lo.SomeBy(s.Y, func(a Accessor) bool { return a.IsZero() }) {
		return errors.New(errors.ErrCodeInvalidInput, "series %q needs at least one y accessor", s.ID)
	}
	if len(s.Y0) > 0 && len(s.Y0) != len(s.Y) {
		return errors.New(errors.ErrCodeInvalidInput, "series %q has %d y0 accessors for %d y accessors", s.ID, len(s.Y0), len(s.Y))
	}
	applySeriesDefaults(&s)
	if s.GroupID != DefaultGroupID {
		if err := errors.ValidateID("group", s.GroupID); err != nil {
			return err
		}
	}

	r.seriesIdx[s.ID] = len(r.series)
	r.series = append(r.series, s)
	r.revision++
	return nil
}

func applySeriesDefaults(s *SeriesSpec) {
	if s.GroupID == "" {
		s.GroupID = DefaultGroupID
	}
	if s.XScaleType == "" {
		s.XScaleType = ScaleOrdinal
	}
	if s.YScaleType == "" {
		s.YScaleType = ScaleLinear
	}
	if s.Curve == "" {
		s.Curve = CurveLinear
	}
	if s.Fit.Type == "" {
		s.Fit.Type = FitNone
	}
	if s.StackMode == "" {
		if len(s.Stack) > 0 {
			s.StackMode = StackStacked
		} else {
			s.StackMode = StackNone
		}
	}
}

// AddAxis validates a and registers it.
func (r *Registry) AddAxis(a AxisSpec) error {
	if err := errors.ValidateID("axis", a.ID); err != nil {
		return err
	}
	if _, dup := r.axisIdx[a.ID]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate axis id %q", a.ID)
	}
	if err := validateStruct("axis "+a.ID, a); err != nil {
		return err
	}
	if a.GroupID == "" {
		a.GroupID = DefaultGroupID
	}
	r.axisIdx[a.ID] = len(r.axes)
	r.axes = append(r.axes, a)
	r.revision++
	return nil
}

// SetSettings replaces the chart settings.
func (r *Registry) SetSettings(s Settings) error {
	if err := errors.ValidateRotation(s.Rotation); err != nil {
		return err
	}
	if s.BarsPadding < 0 || s.BarsPadding >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "bars padding must be in [0, 1), got %g", s.BarsPadding)
	}
	if s.LogBase != 0 && (s.LogBase < 2 || s.LogBase != math.Trunc(s.LogBase)) {
		return errors.New(errors.ErrCodeInvalidConfig, "log base must be a whole number >= 2, got %g", s.LogBase)
	}
	r.settings = s
	r.revision++
	return nil
}

// Revision counts mutations since the registry was created.
func (r *Registry) Revision() uint64 { return r.revision }

// Settings returns the chart settings.
func (r *Registry) Settings() Settings { return r.settings }

// Series returns the registered series in declaration order.
func (r *Registry) Series() []SeriesSpec { return append([]SeriesSpec(nil), r.series...) }

// Axes returns the registered axes in declaration order.
func (r *Registry) Axes() []AxisSpec { return append([]AxisSpec(nil), r.axes...) }

// SeriesByID looks up a series.
func (r *Registry) SeriesByID(id string) (SeriesSpec, bool) {
	i, ok := r.seriesIdx[id]
	if !ok {
		return SeriesSpec{}, false
	}
	return r.series[i], true
}

// Axis looks up an axis.
func (r *Registry) Axis(id string) (AxisSpec, bool) {
	i, ok := r.axisIdx[id]
	if !ok {
		return AxisSpec{}, false
	}
	return r.axes[i], true
}

// Groups returns the axis group ids of all series in first-appearance order.
func (r *Registry) Groups() []string {
	return lo.Uniq(lo.Map(r.series, func(s SeriesSpec, _ int) string { return s.GroupID }))
}

// SeriesInGroup returns the series of one axis group in declaration order.
func (r *Registry) SeriesInGroup(group string) []SeriesSpec {
	return lo.Filter(r.series, func(s SeriesSpec, _ int) bool { return s.GroupID == group })
}

// XAxis returns the first axis that shows the x domain.
func (r *Registry) XAxis() (AxisSpec, bool) {
	return lo.Find(r.axes, func(a AxisSpec) bool { return IsXAxis(a.Position, r.settings.Rotation) })
}

// YAxes returns the axes of group that show its y domain.
func (r *Registry) YAxes(group string) []AxisSpec {
	return lo.Filter(r.axes, func(a AxisSpec, _ int) bool {
		return a.GroupID == group && !IsXAxis(a.Position, r.settings.Rotation)
	})
}

// XScaleType resolves the x scale shared by all series. Any ordinal series
// makes the whole x domain ordinal; mixed continuous types fall back to
// linear. The second result reports whether the series disagreed.
func (r *Registry) XScaleType() (ScaleType, bool) {
	types := lo.Uniq(lo.Map(r.series, func(s SeriesSpec, _ int) ScaleType { return s.XScaleType }))
	switch {
	case len(types) == 0:
		return ScaleOrdinal, false
	case len(types) == 1:
		return types[0], false
	case lo.Contains(types, ScaleOrdinal):
		return ScaleOrdinal, true
	}
	return ScaleLinear, true
}

// YScaleType returns the y scale of a group: that of its first series.
func (r *Registry) YScaleType(group string) ScaleType {
	s, ok := lo.Find(r.series, func(s SeriesSpec) bool { return s.GroupID == group })
	if !ok {
		return ScaleLinear
	}
	return s.YScaleType
}

// Chart returns a copy of the registered declaration.
func (r *Registry) Chart() Chart {
	return Chart{Series: r.Series(), Axes: r.Axes(), Settings: r.settings}
}

// HasFuncs reports whether any series uses a function accessor or any
// axis a Formatter. Functions do not serialize, so such charts have no
// content hash.
func (r *Registry) HasFuncs() bool {
	accessors := lo.SomeBy(r.series, func(s SeriesSpec) bool {
		all := append(append(append(append([]Accessor{s.X}, s.Y...), s.Y0...), s.SplitSeries...), s.Stack...)
		return lo.SomeBy(all, Accessor.IsFunc)
	})
	return accessors || lo.SomeBy(r.axes, func(a AxisSpec) bool { return a.Formatter != nil })
}

func validateStruct(subject string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", subject)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s: %s", subject, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
