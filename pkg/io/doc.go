// Package io reads chart documents and writes computed snapshots.
//
// # Overview
//
// A chart document declares the same model as [spec.Chart] in a file:
// settings, series, axes and, optionally, a partition chart. Documents may
// be written in TOML, YAML or JSON; all three are normalized to one JSON
// form before decoding, so field names are identical across formats and
// the [Document.Hash] of equivalent documents matches.
//
// # Document Format
//
//	[settings]
//	width = 640
//	height = 400
//
//	[[series]]
//	id = "requests"
//	kind = "area"
//	x = "ts"
//	y = "count"
//	split = "status"
//	stack = "ts"
//	stack_mode = "percentage"
//	fit = "carry"
//	data = [
//	  { ts = 0, status = "200", count = 12 },
//	  { ts = 0, status = "500", count = 1 },
//	]
//
//	[[axes]]
//	id = "bottom"
//	position = "bottom"
//	format = "si"
//
// Accessors are strings: a dotted property path ("metrics.cpu") or a
// bracketed index ("[3]") for array rows. Bare integers are indexes too.
// Fields that take several accessors (y, y0, split, stack) accept a single
// accessor or a list.
//
// # Partition Charts
//
// A [partition] table describes a partition chart:
//
//	[partition]
//	id = "traffic"
//	kind = "sunburst"
//	value = "[3]"
//	sort = "value-desc"
//	legend = "by-label"
//	layers = [{ group_by = "[0]" }, { group_by = "[2]", sort = "key" }]
//	data = [["CN", 301, "IN", 44], ["CN", 301, "US", 24]]
//
// # Rows
//
// Data rows are kept as raw JSON and read through gjson paths, so a row
// may be an object or an array of any shape the accessors can reach.
//
// # Snapshots
//
// Use [WriteSnapshot] to encode a pipeline snapshot to any io.Writer, or
// [ExportSnapshot] to write it to a file.
package io
