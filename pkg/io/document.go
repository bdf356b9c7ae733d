package io

import (
	stdjson "encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/chartflow/pkg/cache"
	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/partition"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Format is a chart document encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot tell the format of %s (want .toml, .yaml or .json)", path)
}

// Document is a decoded chart document.
type Document struct {
	Chart     spec.Chart
	Partition *Partition
	// Hash identifies the normalized document. Equivalent documents hash
	// the same in every format.
	Hash string
}

// HasXY reports whether the document declares any XY series.
func (d *Document) HasXY() bool { return len(d.Chart.Series) > 0 }

// Partition is the partition section of a document.
type Partition struct {
	ID     string
	Config partition.Config
	Legend partition.LegendRule
	Data   []any
}

type document struct {
	Settings  spec.Settings   `json:"settings"`
	Series    []seriesDoc     `json:"series"`
	Axes      []spec.AxisSpec `json:"axes"`
	Partition *partitionDoc   `json:"partition"`
}

type seriesDoc struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	X         any    `json:"x"`
	Y         any    `json:"y"`
	Y0        any    `json:"y0"`
	Split     any    `json:"split"`
	Stack     any    `json:"stack"`
	StackMode string `json:"stack_mode"`
	XScale    string `json:"x_scale"`
	YScale    string `json:"y_scale"`
	Fit       string `json:"fit"`
	Curve     string `json:"curve"`
	SortIndex *int   `json:"sort_index"`
	Color     string `json:"color"`
}

type partitionDoc struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Layers      []layerDoc `json:"layers"`
	Value       any        `json:"value"`
	Sort        string     `json:"sort"`
	EmptyCenter float64    `json:"empty_center"`
	Legend      string     `json:"legend"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
}

type layerDoc struct {
	GroupBy any    `json:"group_by"`
	Sort    string `json:"sort"`
}

// Read decodes a chart document in the given format from r.
// Read does not close r.
func Read(r io.Reader, format Format) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
	}
	normalized, err := normalize(raw, format)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s document", format)
	}
	out := &Document{
		Chart: spec.Chart{Settings: doc.Settings, Axes: doc.Axes},
		Hash:  cache.Hash(normalized),
	}
	seriesRows := gjson.GetBytes(normalized, "series").Array()
	for i, sd := range doc.Series {
		var rows gjson.Result
		if i < len(seriesRows) {
			rows = seriesRows[i].Get("data")
		}
		s, err := sd.toSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("series %d (%s): %w", i, sd.ID, err)
		}
		out.Chart.Series = append(out.Chart.Series, s)
	}
	if doc.Partition != nil {
		p, err := doc.Partition.toPartition(gjson.GetBytes(normalized, "partition.data"))
		if err != nil {
			return nil, fmt.Errorf("partition: %w", err)
		}
		out.Partition = p
	}
	if !out.HasXY() && out.Partition == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document declares no series and no partition")
	}
	return out, nil
}

// Import reads the chart document at path, picking the format from the
// file extension.
func Import(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, format)
}

// normalize converts a document of any format to canonical JSON with
// sorted keys.
func normalize(raw []byte, format Format) ([]byte, error) {
	var tree any
	switch format {
	case FormatTOML:
		var m map[string]any
		if _, err := toml.Decode(string(raw), &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse toml")
		}
		tree = m
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse yaml")
		}
	case FormatJSON:
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", format)
	}
	if _, ok := tree.(map[string]any); !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "document must be a table or object")
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "normalize %s document", format)
	}
	return out, nil
}

func (sd seriesDoc) toSpec(rows gjson.Result) (spec.SeriesSpec, error) {
	s := spec.SeriesSpec{
		ID:         sd.ID,
		GroupID:    sd.GroupID,
		Kind:       spec.SeriesKind(sd.Kind),
		Name:       sd.Name,
		StackMode:  spec.StackMode(sd.StackMode),
		XScaleType: spec.ScaleType(sd.XScale),
		YScaleType: spec.ScaleType(sd.YScale),
		Curve:      spec.Curve(sd.Curve),
		SortIndex:  sd.SortIndex,
		Color:      sd.Color,
		Data:       rowsOf(rows),
	}
	var err error
	if s.X, err = spec.ParseAccessor(sd.X); err != nil {
		return s, err
	}
	if s.Y, err = accessors(sd.Y); err != nil {
		return s, err
	}
	if s.Y0, err = accessors(sd.Y0); err != nil {
		return s, err
	}
	if s.SplitSeries, err = accessors(sd.Split); err != nil {
		return s, err
	}
	if s.Stack, err = accessors(sd.Stack); err != nil {
		return s, err
	}
	if sd.Fit != "" {
		if s.Fit, err = spec.ParseFit(sd.Fit); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (pd *partitionDoc) toPartition(rows gjson.Result) (*Partition, error) {
	p := &Partition{
		ID:     pd.ID,
		Legend: partition.LegendRule(pd.Legend),
		Data:   rowsOf(rows),
		Config: partition.Config{
			Kind:        partition.Kind(pd.Kind),
			EmptyCenter: pd.EmptyCenter,
			Width:       pd.Width,
			Height:      pd.Height,
		},
	}
	if p.Config.Kind == "" {
		p.Config.Kind = partition.KindSunburst
	}
	var err error
	if p.Config.Value, err = spec.ParseAccessor(pd.Value); err != nil {
		return nil, err
	}
	if pd.Sort != "" {
		if p.Config.Sort, err = partition.ComparatorByName(pd.Sort); err != nil {
			return nil, err
		}
	}
	for i, ld := range pd.Layers {
		var l partition.Layer
		if l.GroupBy, err = spec.ParseAccessor(ld.GroupBy); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if ld.Sort != "" {
			if l.Sort, err = partition.ComparatorByName(ld.Sort); err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
		}
		p.Config.Layers = append(p.Config.Layers, l)
	}
	return p, nil
}

// accessors accepts one accessor or a list of them.
func accessors(v any) ([]spec.Accessor, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return spec.ParseAccessors(x)
	}
	a, err := spec.ParseAccessor(v)
	if err != nil {
		return nil, err
	}
	return []spec.Accessor{a}, nil
}

// rowsOf keeps each element of a JSON array as a raw row.
func rowsOf(r gjson.Result) []any {
	if !r.IsArray() {
		return nil
	}
	var rows []any
	r.ForEach(func(_, row gjson.Result) bool {
		rows = append(rows, stdjson.RawMessage(row.Raw))
		return true
	})
	return rows
}
