package partition

import (
	"math"
	"strings"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// LayerValue identifies a node at one depth of its ancestor path.
type LayerValue struct {
	GroupByRollup any     `json:"group_by_rollup"`
	Label         string  `json:"label"`
	Value         float64 `json:"value"`
	Depth         int     `json:"depth"`
	SortIndex     int     `json:"sort_index"`
}

// SeriesIdentifier names the partition series a pick belongs to.
type SeriesIdentifier struct {
	SpecID string `json:"spec_id"`
	Key    string `json:"key"`
}

// Picked is the click and hover payload for one node.
type Picked struct {
	Path   []LayerValue     `json:"path"`
	Series SeriesIdentifier `json:"series"`
}

// Path returns the ancestor path of node i, outer to inner, root
// excluded. The root's path is empty.
func (t *Tree) Path(i int) []LayerValue {
	n := t.Nodes[i].Depth
	path := make([]LayerValue, n)
	for cur := i; cur > 0; cur = t.Nodes[cur].Parent {
		nd := &t.Nodes[cur]
		path[nd.Depth-1] = LayerValue{
			GroupByRollup: nd.Key,
			Label:         nd.Label,
			Value:         nd.Value,
			Depth:         nd.Depth,
			SortIndex:     nd.SortIndex,
		}
	}
	return path
}

// Find returns the node at the end of the path given by keys, outer to
// inner.
func (t *Tree) Find(keys ...any) (int, bool) {
	cur := 0
next:
	for _, k := range keys {
		k = spec.Key(k)
		for _, ci := range t.Nodes[cur].Children {
			if t.Nodes[ci].Key == k {
				cur = ci
				continue next
			}
		}
		return 0, false
	}
	return cur, true
}

// Leaves returns the leaf nodes in layout order.
func (t *Tree) Leaves() []int {
	var out []int
	t.Walk(func(i int) {
		if len(t.Nodes[i].Children) == 0 && i != 0 {
			out = append(out, i)
		}
	})
	return out
}

// Walk visits every node depth first, parents before children, siblings
// in sort order.
func (t *Tree) Walk(fn func(i int)) {
	var visit func(i int)
	visit = func(i int) {
		fn(i)
		for _, ci := range t.Nodes[i].Children {
			visit(ci)
		}
	}
	visit(0)
}

// Pick returns the deepest node under (x, y), in plot coordinates. For
// sunbursts the chart is centred in the plot area.
func (t *Tree) Pick(x, y float64) (int, bool) {
	if t.Kind == KindSunburst {
		dx, dy := x-t.Width/2, y-t.Height/2
		angle := math.Atan2(dx, -dy)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		x, y = angle, math.Hypot(dx, dy)
	}
	best, depth := 0, 0
	for i := 1; i < len(t.Nodes); i++ {
		n := &t.Nodes[i]
		if n.Depth > depth && x >= n.X0 && x < n.X1 && y >= n.Y0 && y < n.Y1 {
			best, depth = i, n.Depth
		}
	}
	return best, best != 0
}

// Picked returns the interaction payload of node i.
func (t *Tree) Picked(i int, specID string) Picked {
	path := t.Path(i)
	labels := make([]string, len(path))
	for k, lv := range path {
		labels[k] = lv.Label
	}
	return Picked{
		Path:   path,
		Series: SeriesIdentifier{SpecID: specID, Key: strings.Join(labels, " / ")},
	}
}

// LegendRule decides which nodes share a legend entry.
type LegendRule string

const (
	// LegendByPath gives every node its own entry.
	LegendByPath LegendRule = "by-path"
	// LegendByLabelPerDepth merges nodes with the same label at the same depth.
	LegendByLabelPerDepth LegendRule = "by-label-per-depth"
	// LegendByLabel merges nodes with the same label at any depth.
	LegendByLabel LegendRule = "by-label"
)

// LegendItem is one legend entry. Value sums the merged nodes.
type LegendItem struct {
	Label string         `json:"label"`
	Depth int            `json:"depth"`
	Value float64        `json:"value"`
	Paths [][]LayerValue `json:"paths"`
}

// Legend lists the tree's legend entries in depth-first order. Entries
// merged by the rule keep the position of their first node and the
// smallest depth among them.
func (t *Tree) Legend(rule LegendRule) ([]LegendItem, error) {
	if rule == "" {
		rule = LegendByPath
	}
	type key struct {
		label string
		depth int
	}
	var items []LegendItem
	index := make(map[key]int)

	var err error
	t.Walk(func(i int) {
		if i == 0 || err != nil {
			return
		}
		n := &t.Nodes[i]
		var k key
		switch rule {
		case LegendByPath:
			items = append(items, LegendItem{Label: n.Label, Depth: n.Depth, Value: n.Value, Paths: [][]LayerValue{t.Path(i)}})
			return
		case LegendByLabelPerDepth:
			k = key{n.Label, n.Depth}
		case LegendByLabel:
			k = key{label: n.Label}
		default:
			err = errors.New(errors.ErrCodeInvalidConfig, "unknown legend rule %q", rule)
			return
		}
		if at, ok := index[k]; ok {
			items[at].Value += n.Value
			items[at].Depth = min(items[at].Depth, n.Depth)
			items[at].Paths = append(items[at].Paths, t.Path(i))
			return
		}
		index[k] = len(items)
		items = append(items, LegendItem{Label: n.Label, Depth: n.Depth, Value: n.Value, Paths: [][]LayerValue{t.Path(i)}})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
