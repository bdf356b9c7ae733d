// Package partition folds tabular rows through an ordered list of grouping
// layers into a value tree and lays it out as a sunburst, treemap, icicle
// or flame chart.
//
// The tree is an arena: nodes live in one slice and refer to their parent
// and children by index, so ancestor paths are cheap to rebuild and no
// node owns another. Node identity for interaction is the ancestor path
// ([]LayerValue, outer to inner), never a node index, because indices
// change whenever the data does.
//
// Every non-leaf node's value equals the sum of its children's values.
package partition

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Kind selects the layout.
type Kind string

const (
	KindSunburst Kind = "sunburst"
	KindTreemap  Kind = "treemap"
	KindIcicle   Kind = "icicle"
	KindFlame    Kind = "flame"
)

// Sibling is what a Comparator sees of a node.
type Sibling struct {
	Key   any
	Value float64
	// Appearance is the position of first appearance among siblings.
	Appearance int
}

// Comparator orders siblings. It returns a negative number when a sorts
// before b.
type Comparator func(a, b Sibling) int

// Named comparators, for chart documents.
var comparators = map[string]Comparator{
	"appearance": func(a, b Sibling) int { return cmp.Compare(a.Appearance, b.Appearance) },
	"value-desc": func(a, b Sibling) int { return cmp.Compare(b.Value, a.Value) },
	"value-asc":  func(a, b Sibling) int { return cmp.Compare(a.Value, b.Value) },
	"key":        func(a, b Sibling) int { return cmp.Compare(spec.FormatKey(a.Key), spec.FormatKey(b.Key)) },
}

// ComparatorByName returns one of the named comparators: appearance,
// value-desc, value-asc or key.
func ComparatorByName(name string) (Comparator, error) {
	c, ok := comparators[name]
	if !ok {
		names := lo.Keys(comparators)
		slices.Sort(names)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown sort %q (want one of %v)", name, names)
	}
	return c, nil
}

// Layer is one level of grouping.
type Layer struct {
	// GroupBy returns the rollup key of a row at this level.
	GroupBy spec.Accessor
	// Sort orders siblings at this level; nil falls back to Config.Sort.
	Sort Comparator
	// Format renders keys at this level; nil uses spec.FormatKey.
	Format spec.Formatter
}

// Config describes a partition chart.
type Config struct {
	Kind   Kind
	Layers []Layer
	Value  spec.Accessor

	Width  float64
	Height float64

	// EmptyCenter is the share of the sunburst radius left empty, in [0, 1).
	EmptyCenter float64
	// Sort orders siblings for layers without their own comparator.
	Sort Comparator
}

func (c Config) validate() error {
	if len(c.Layers) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "partition needs at least one layer")
	}
	for i, l := range c.Layers {
		if l.GroupBy.IsZero() {
			return errors.New(errors.ErrCodeInvalidConfig, "layer %d: group-by accessor is required", i)
		}
	}
	if c.Value.IsZero() {
		return errors.New(errors.ErrCodeInvalidConfig, "value accessor is required")
	}
	switch c.Kind {
	case KindSunburst, KindTreemap, KindIcicle, KindFlame:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown partition kind %q", c.Kind)
	}
	if c.EmptyCenter < 0 || c.EmptyCenter >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "empty center %g must be in [0, 1)", c.EmptyCenter)
	}
	return errors.ValidateDimensions(c.Width, c.Height)
}

// Node is one node of the tree. X0/X1 and Y0/Y1 are pixel extents for
// rectangular layouts; for sunbursts X is the angle in radians, clockwise
// from twelve o'clock, and Y the radius.
type Node struct {
	Key       any     `json:"key"`
	Label     string  `json:"label"`
	Depth     int     `json:"depth"`
	Value     float64 `json:"value"`
	SortIndex int     `json:"sort_index"`
	Parent    int     `json:"parent"`
	Children  []int   `json:"children,omitempty"`

	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`
}

// Tree is the arena of a laid out partition. Nodes[0] is the root.
type Tree struct {
	Kind   Kind    `json:"kind"`
	Depth  int     `json:"depth"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
}

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.Nodes[0] }

// Layout folds data through cfg.Layers and lays out the result. An empty
// layer list or an otherwise invalid config is an error. When no row can
// be classified, Layout returns a nil tree and records a
// NO_MATCHING_PARTITION_RULE diagnostic.
func Layout(data []any, cfg Config, diags *errors.Diagnostics) (*Tree, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	t := fold(data, cfg, diags)
	if len(t.Root().Children) == 0 || t.Root().Value <= 0 {
		diags.Add(errors.ErrCodeNoMatchingPartitionRule, "partition",
			"no row of %d yields a rollup key and a positive value", len(data))
		return nil, nil
	}
	t.sortChildren(cfg)
	t.layout(cfg)
	return t, nil
}

// fold builds the tree, summing values along each row's path.
func fold(data []any, cfg Config, diags *errors.Diagnostics) *Tree {
	t := &Tree{Kind: cfg.Kind, Depth: len(cfg.Layers), Width: cfg.Width, Height: cfg.Height}
	t.Nodes = append(t.Nodes, Node{Parent: -1})

	type edge struct {
		parent int
		key    any
	}
	index := make(map[edge]int)
	var badValue, badKey int

rows:
	for _, row := range data {
		raw, ok := cfg.Value.Resolve(row)
		v, isNum := spec.ToFloat(raw)
		if !ok || !isNum || v < 0 {
			badValue++
			continue
		}
		keys := make([]any, len(cfg.Layers))
		for d, l := range cfg.Layers {
			k, ok := l.GroupBy.Resolve(row)
			k = spec.Key(k)
			if !ok || k == nil {
				badKey++
				continue rows
			}
			keys[d] = k
		}

		cur := 0
		t.Nodes[cur].Value += v
		for d, k := range keys {
			e := edge{cur, k}
			next, ok := index[e]
			if !ok {
				next = len(t.Nodes)
				index[e] = next
				t.Nodes = append(t.Nodes, Node{
					Key:    k,
					Label:  label(cfg.Layers[d], k),
					Depth:  d + 1,
					Parent: cur,
				})
				t.Nodes[cur].Children = append(t.Nodes[cur].Children, next)
			}
			cur = next
			t.Nodes[cur].Value += v
		}
	}

	if badValue > 0 {
		diags.Add(errors.ErrCodeAccessorResolution, "partition",
			"%d rows without a non-negative %s value were skipped", badValue, cfg.Value)
	}
	if badKey > 0 {
		diags.Add(errors.ErrCodeAccessorResolution, "partition",
			"%d rows without a rollup key were skipped", badKey)
	}
	return t
}

func label(l Layer, k any) string {
	if l.Format != nil {
		return l.Format(k)
	}
	return spec.FormatKey(k)
}

// sortChildren orders every child list and records sort indices.
func (t *Tree) sortChildren(cfg Config) {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if len(n.Children) == 0 {
			continue
		}
		c := cfg.Sort
		if n.Depth < len(cfg.Layers) && cfg.Layers[n.Depth].Sort != nil {
			c = cfg.Layers[n.Depth].Sort
		}
		if c != nil {
			appearance := make(map[int]int, len(n.Children))
			for pos, ci := range n.Children {
				appearance[ci] = pos
			}
			sib := func(ci int) Sibling {
				return Sibling{Key: t.Nodes[ci].Key, Value: t.Nodes[ci].Value, Appearance: appearance[ci]}
			}
			slices.SortStableFunc(n.Children, func(a, b int) int { return c(sib(a), sib(b)) })
		}
		for pos, ci := range n.Children {
			t.Nodes[ci].SortIndex = pos
		}
	}
}
