package hierarchy

import (
	"math"
)

// Phi is the target aspect ratio of squarified tiles.
var Phi = (1 + math.Sqrt(5)) / 2

// LayoutOptions configure the treemap.
type LayoutOptions struct {
	// Padding is the gap between sibling tiles.
	Padding float64
	// Ratio is the target aspect ratio; zero means Phi.
	Ratio float64
}

// Tile is a positioned node. Key is the country name for leaves and
// "#continent" or "#continent/region" for groups.
type Tile struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Continent string  `json:"continent"`
	Region    string  `json:"region,omitempty"`
	Depth     int     `json:"depth"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	Opacity   float64 `json:"opacity"`
}

// Width returns the tile width.
func (t Tile) Width() float64 { return t.X1 - t.X0 }

// Height returns the tile height.
func (t Tile) Height() float64 { return t.Y1 - t.Y0 }

// Area returns the tile area.
func (t Tile) Area() float64 { return t.Width() * t.Height() }

type box struct {
	node           *Node
	value          float64
	x0, y0, x1, y1 float64
}

// Layout tiles root over a width x height canvas and returns every node
// below the root in depth-first order. Zero-valued subtrees get empty
// tiles.
func Layout(root *Node, width, height float64, opts LayoutOptions) []Tile {
	if opts.Ratio <= 0 {
		opts.Ratio = Phi
	}
	var out []Tile
	var visit func(n *Node, b box, depth int, path []string, p float64)
	visit = func(n *Node, b box, depth int, path []string, p float64) {
		x0, y0, x1, y1 := b.x0+p, b.y0+p, b.x1-p, b.y1-p
		x0, x1 = order(x0, x1)
		y0, y1 = order(y0, y1)

		if depth > 0 {
			t := Tile{
				Name:    n.Name,
				Depth:   depth,
				Leaf:    n.IsLeaf(),
				Value:   b.value,
				X0:      x0,
				Y0:      y0,
				X1:      x1,
				Y1:      y1,
				Opacity: 1,
			}
			t.Continent = path[0]
			if len(path) > 1 {
				t.Region = path[1]
			}
			if t.Leaf {
				t.Key = n.Name
			} else {
				t.Key = "#" + path[0]
				if t.Region != "" {
					t.Key += "/" + t.Region
				}
			}
			out = append(out, t)
		}
		if n.IsLeaf() {
			return
		}

		half := opts.Padding / 2
		cx0, cy0, cx1, cy1 := x0-half, y0-half, x1+half, y1+half
		cx0, cx1 = order(cx0, cx1)
		cy0, cy1 = order(cy0, cy1)

		children := make([]box, len(n.Children))
		for i, c := range n.Children {
			children[i] = box{node: c, value: c.Sum()}
		}
		squarify(children, b.value, opts.Ratio, cx0, cy0, cx1, cy1)

		for _, c := range children {
			childPath := path
			if !c.node.IsLeaf() {
				childPath = append(append([]string(nil), path...), c.node.Name)
			}
			visit(c.node, c, depth+1, childPath, half)
		}
	}

	if root != nil {
		visit(root, box{node: root, value: root.Sum(), x1: width, y1: height}, 0, nil, 0)
	}
	return out
}

// order collapses an inverted interval to its midpoint.
func order(a, b float64) (float64, float64) {
	if b < a {
		m := (a + b) / 2
		return m, m
	}
	return a, b
}

// squarify positions nodes inside the rectangle, row by row, adding nodes
// to a row while its worst aspect ratio does not get worse.
func squarify(nodes []box, value, ratio, x0, y0, x1, y1 float64) {
	i0, i1, n := 0, 0, len(nodes)
	for i0 < n {
		dx, dy := x1-x0, y1-y0

		var sum float64
		for {
			sum = nodes[i1].value
			i1++
			if sum != 0 || i1 >= n {
				break
			}
		}
		minV, maxV := sum, sum
		alpha := math.Max(dy/dx, dx/dy) / (value * ratio)
		beta := sum * sum * alpha
		minRatio := math.Max(maxV/beta, beta/minV)

		for ; i1 < n; i1++ {
			v := nodes[i1].value
			sum += v
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
			beta = sum * sum * alpha
			next := math.Max(maxV/beta, beta/minV)
			if next > minRatio {
				sum -= v
				break
			}
			minRatio = next
		}

		row := nodes[i0:i1]
		if dx < dy {
			ny := y1
			if value != 0 {
				ny = y0 + dy*sum/value
			}
			dice(row, sum, x0, y0, x1, ny)
			if value != 0 {
				y0 = ny
			}
		} else {
			nx := x1
			if value != 0 {
				nx = x0 + dx*sum/value
			}
			slice(row, sum, x0, y0, nx, y1)
			if value != 0 {
				x0 = nx
			}
		}
		value -= sum
		i0 = i1
	}
}

// dice lays row out left to right.
func dice(row []box, value, x0, y0, x1, y1 float64) {
	k := 0.0
	if value != 0 {
		k = (x1 - x0) / value
	}
	for i := range row {
		row[i].y0, row[i].y1 = y0, y1
		row[i].x0 = x0
		x0 += row[i].value * k
		row[i].x1 = x0
	}
}

// slice lays row out top to bottom.
func slice(row []box, value, x0, y0, x1, y1 float64) {
	k := 0.0
	if value != 0 {
		k = (y1 - y0) / value
	}
	for i := range row {
		row[i].x0, row[i].x1 = x0, x1
		row[i].y0 = y0
		y0 += row[i].value * k
		row[i].y1 = y0
	}
}
