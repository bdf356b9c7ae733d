package partition

import "math"

// layout assigns extents to every node. Children split their parent's
// extent in sort order, proportionally to value.
func (t *Tree) layout(cfg Config) {
	root := t.Root()
	switch t.Kind {
	case KindSunburst:
		outer := math.Min(t.Width, t.Height) / 2
		inner := cfg.EmptyCenter * outer
		root.X0, root.X1 = 0, 2*math.Pi
		root.Y0, root.Y1 = 0, inner
		ring := (outer - inner) / float64(t.Depth)
		t.divide(0, func(c *Node) {
			c.Y0 = inner + float64(c.Depth-1)*ring
			c.Y1 = c.Y0 + ring
		})
	case KindTreemap:
		root.X0, root.X1, root.Y0, root.Y1 = 0, t.Width, 0, t.Height
		t.divide(0, nil)
	case KindIcicle, KindFlame:
		row := t.Height / float64(t.Depth)
		root.X0, root.X1 = 0, t.Width
		if t.Kind == KindFlame {
			root.Y0, root.Y1 = t.Height, t.Height
		}
		t.divide(0, func(c *Node) {
			c.Y0 = float64(c.Depth-1) * row
			if t.Kind == KindFlame {
				c.Y0 = t.Height - float64(c.Depth)*row
			}
			c.Y1 = c.Y0 + row
		})
	}
}

// divide splits node i among its children and recurses. Treemaps
// alternate the split axis by depth, starting with x; every other kind
// splits x and sets the cross extent with band.
func (t *Tree) divide(i int, band func(c *Node)) {
	p := t.Nodes[i]
	alongY := t.Kind == KindTreemap && (p.Depth+1)%2 == 0
	lo, hi := p.X0, p.X1
	if alongY {
		lo, hi = p.Y0, p.Y1
	}

	cum := 0.0
	for k, ci := range p.Children {
		c := &t.Nodes[ci]
		a := lo + (hi-lo)*share(cum, p.Value)
		cum += c.Value
		b := lo + (hi-lo)*share(cum, p.Value)
		if k == len(p.Children)-1 && p.Value > 0 {
			b = hi
		}

		switch {
		case alongY:
			c.X0, c.X1, c.Y0, c.Y1 = p.X0, p.X1, a, b
		case band != nil:
			c.X0, c.X1 = a, b
			band(c)
		default:
			c.X0, c.X1, c.Y0, c.Y1 = a, b, p.Y0, p.Y1
		}
		t.divide(ci, band)
	}
}

func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total
}
