// Package pkg provides the core libraries of chartflow, which turns
// declarative chart specifications and raw rows into renderable geometry.
//
// # Overview
//
// chartflow computes everything a chart renderer needs short of drawing
// pixels: data domains, stacked values, scales, axis ticks, bar rectangles,
// line and area paths, partition layouts and legend values. The pkg directory
// is organized by pipeline stage:
//
//  1. [spec] - Chart, series and axis specifications plus accessors
//  2. [series] - Extraction of raw rows into keyed data series
//  3. [domain] and [stack] - Domain merging, gap filling and stacking
//  4. [scale] and [ticks] - Value to pixel mapping and axis labels
//  5. [geometry], [partition] and [legend] - Renderable output
//  6. [pipeline] - Orchestration with caching and observability hooks
//
// # Architecture
//
// The data flow of an XY chart:
//
//	spec.Chart (series + axes + settings)
//	         ↓
//	    [series] (split rows into DataSeries)
//	         ↓
//	    [domain] + [stack] (x domain, fit, stacked y values)
//	         ↓
//	    [scale] + [ticks] (per-group scales, axis ticks)
//	         ↓
//	    [geometry] + [legend]
//	         ↓
//	    pipeline.Snapshot (JSON)
//
// Partition charts (sunburst, treemap, icicle, flame) take a shorter path:
// rows are folded into a tree by [partition] and laid out in one pass.
//
// # Quick Start
//
//	doc, _ := io.Import("sales.toml")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil, observability.Hooks{})
//	defer runner.Close()
//
//	snap, err := runner.Run(ctx, doc.Chart, pipeline.Options{Width: 800, Height: 400})
//	if err != nil {
//	    return err
//	}
//	for _, g := range snap.Geometries {
//	    fmt.Println(g.SeriesKey, len(g.Bars))
//	}
//
// # Supporting Packages
//
// [errors] - Error codes and the non-fatal diagnostics every stage collects.
//
// [cache] - Snapshot caches: file (CLI), memory and Redis (server).
//
// [io] - Chart documents in TOML, YAML or JSON and snapshot export.
//
// [observability] - Stage and HTTP hooks plus an in-process recorder.
//
// [buildinfo] - Version information set at link time.
//
// [spec]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/spec
// [series]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/series
// [domain]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/domain
// [stack]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/stack
// [scale]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/scale
// [ticks]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/ticks
// [geometry]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/geometry
// [partition]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/partition
// [legend]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/legend
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/errors
// [cache]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/io
// [observability]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/chartflow/pkg/buildinfo
package pkg
