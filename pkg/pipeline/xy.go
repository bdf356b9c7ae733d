package pipeline

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/geometry"
	"github.com/matzehuels/chartflow/pkg/legend"
	"github.com/matzehuels/chartflow/pkg/observability"
	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/series"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
	"github.com/matzehuels/chartflow/pkg/ticks"
)

// xyRun carries the intermediate results of one XY run between stages.
type xyRun struct {
	reg      *spec.Registry
	settings spec.Settings
	opts     *Options
	diags    errors.Diagnostics

	all     []series.Series
	xType   spec.ScaleType
	stacked *stack.Result

	x  scale.Scale
	ys map[string]scale.Scale
}

func (r *Runner) computeXY(ctx context.Context, reg *spec.Registry, opts *Options) (*Snapshot, error) {
	run := &xyRun{reg: reg, settings: opts.settings(reg.Settings()), opts: opts}
	w, h := run.settings.PlotArea()
	if err := errors.ValidateDimensions(w, h); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "plot area")
	}
	snap := &Snapshot{
		Width:      w,
		Height:     h,
		Rotation:   run.settings.Rotation,
		YDomains:   make(map[string]domain.Domain),
		ScaleTypes: make(map[string]spec.ScaleType),
	}

	steps := []struct {
		stage observability.Stage
		fn    func(*Snapshot) error
	}{
		{observability.StageSeries, run.extract},
		{observability.StageStack, run.stack},
		{observability.StageDomains, run.yDomains},
		{observability.StageScales, run.scales},
		{observability.StageTicks, run.axes},
		{observability.StageGeometry, run.geometry},
		{observability.StageLegend, run.legend},
	}
	for _, st := range steps {
		if err := r.stage(ctx, st.stage, func() error { return st.fn(snap) }); err != nil {
			return nil, err
		}
	}
	snap.Diagnostics = run.diags
	return snap, nil
}

// extract resolves the series, computes the x domain and lines every
// series up along it. Stacked series get a point for every category so
// that stacks line up; fit policies then fill what they can.
func (run *xyRun) extract(snap *Snapshot) error {
	for _, s := range run.reg.Series() {
		run.all = append(run.all, series.Extract(s, &run.diags)...)
	}

	xType, mixed := run.reg.XScaleType()
	if mixed {
		run.diags.Add(errors.ErrCodeUnsupportedScale, "x",
			"series disagree on the x scale type; using %s", xType)
	}
	run.xType = xType

	override := run.settings.XDomain
	if xa, ok := run.reg.XAxis(); ok && override == nil {
		override = xa.Domain
	}
	snap.XDomain = domain.ComputeX(run.all, xType, override, &run.diags)

	categories := snap.XDomain.Categories
	if xType != spec.ScaleOrdinal {
		categories = series.SortedXValues(run.all)
	}
	for i := range run.all {
		s := &run.all[i]
		series.Align(s, categories, s.Stacked())
		series.ApplyFit(s.Points, s.Fit, xType != spec.ScaleOrdinal)
	}
	return nil
}

func (run *xyRun) stack(snap *Snapshot) error {
	run.stacked = stack.Stack(run.all, &run.diags)
	snap.Stacks = run.stacked.Groups
	return nil
}

// yDomains computes one domain per axis group. The first y axis of a
// group supplies its domain override.
func (run *xyRun) yDomains(snap *Snapshot) error {
	for _, g := range run.reg.Groups() {
		var override *spec.DomainOverride
		if axes := run.reg.YAxes(g); len(axes) > 0 {
			override = axes[0].Domain
		}
		snap.YDomains[g] = domain.ComputeY(g, run.stacked, run.reg.YScaleType(g), override, domain.Options{}, &run.diags)
	}
	return nil
}

func (run *xyRun) scales(snap *Snapshot) error {
	xr, yr := geometry.AxisRanges(run.settings.Rotation, snap.Width, snap.Height)
	hasBars := lo.SomeBy(run.all, func(s series.Series) bool { return s.Kind == spec.KindBar })

	xo := scale.Options{Padding: run.settings.OrdinalPadding}
	if hasBars && xo.Padding == (spec.Padding{}) {
		xo.Padding.Inner = run.settings.BarsPadding
	}
	if hasBars && run.xType != spec.ScaleOrdinal {
		xo.Banded, xo.MinInterval = true, snap.XDomain.MinInterval
	}
	x, err := scale.New(run.xType, snap.XDomain, xr, xo, &run.diags)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDomain, err, "x scale")
	}
	run.x = x
	snap.ScaleTypes["x"] = x.Type()

	run.ys = make(map[string]scale.Scale, len(snap.YDomains))
	for _, g := range run.reg.Groups() {
		y, err := scale.New(run.reg.YScaleType(g), snap.YDomains[g], yr, scale.Options{LogBase: int(run.settings.LogBase)}, &run.diags)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDomain, err, "y scale of group %s", g)
		}
		run.ys[g] = y
		snap.ScaleTypes[g] = y.Type()
	}
	return nil
}

// axes derives the ticks of every declared axis.
func (run *xyRun) axes(snap *Snapshot) error {
	rotation := run.settings.Rotation
	for _, a := range run.reg.Axes() {
		isX := spec.IsXAxis(a.Position, rotation)
		s := run.x
		if !isX {
			y, ok := run.ys[a.GroupID]
			if !ok {
				run.diags.Add(errors.ErrCodeNotFound, "axis:"+a.ID, "no series in group %s", a.GroupID)
				continue
			}
			s = y
		}

		format := a.Formatter
		if format == nil && a.Format != "" {
			f, err := ticks.FormatterByName(a.Format)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "axis %s", a.ID)
			}
			format = f
		}
		count := a.Ticks
		if count == 0 {
			count = run.opts.TickCount
		}
		res := ticks.Generate(s, ticks.Options{
			Count:                 count,
			Formatter:             format,
			ShowOverlappingTicks:  a.ShowOverlappingTicks,
			ShowDuplicatedTicks:   a.ShowDuplicatedTicks,
			ShowOverlappingLabels: a.ShowOverlappingLabels,
			Rotation:              a.Rotation,
			FontSize:              run.settings.FontSize,
			Vertical:              !a.Position.IsHorizontal(),
		})

		axis := Axis{
			ID:       a.ID,
			GroupID:  a.GroupID,
			Position: a.Position,
			Title:    a.Title,
			IsX:      isX,
			Hidden:   a.Hide,
			Ticks:    res.Ticks,
			Overlap:  res.Overlap,
		}
		if run.settings.HideDuplicateAxes && !axis.Hidden {
			axis.Hidden = slices.ContainsFunc(snap.Axes, func(prev Axis) bool { return duplicates(prev, axis) })
		}
		snap.Axes = append(snap.Axes, axis)
	}
	return nil
}

// duplicates reports whether b repeats the visible axis a: same position
// and the same labels at the same places.
func duplicates(a, b Axis) bool {
	if a.Hidden || a.Position != b.Position || len(a.Ticks) != len(b.Ticks) {
		return false
	}
	for i := range a.Ticks {
		if a.Ticks[i].Label != b.Ticks[i].Label || a.Ticks[i].Position != b.Ticks[i].Position {
			return false
		}
	}
	return true
}

func (run *xyRun) geometry(snap *Snapshot) error {
	snap.Geometries = geometry.Build(run.stacked.Series, run.x, run.ys, geometry.Options{
		Rotation:    run.settings.Rotation,
		PointRadius: run.settings.PointRadius,
	})
	return nil
}

// legend assigns colors and copies them onto the geometry.
func (run *xyRun) legend(snap *Snapshot) error {
	snap.Legend, snap.Colors = legend.Build(run.stacked.Series, run.opts.Colors, legend.Options{
		Palette:  run.settings.Palette,
		Category: run.opts.LegendCategory,
	})
	colors := lo.SliceToMap(snap.Legend, func(v legend.SeriesCollectionValue) (string, string) { return v.Key, v.Color })
	for i := range snap.Geometries {
		snap.Geometries[i].Color = colors[snap.Geometries[i].SeriesKey]
	}
	return nil
}
