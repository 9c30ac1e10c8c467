package detail

// point is a screen-space coordinate.
type point struct{ x, y float64 }

// voronoi returns, for each seed, its cell clipped to the rectangle
// [0, w] x [0, h]. Each cell is built by clipping the rectangle with the
// half-planes closer to the seed than to every other seed. A seed equal to
// an earlier one gets a nil cell.
func voronoi(seeds []point, w, h float64) [][]point {
	cells := make([][]point, len(seeds))
	for i, s := range seeds {
		if duplicateOf(seeds, i) {
			continue
		}
		cell := []point{{0, 0}, {w, 0}, {w, h}, {0, h}}
		for j, o := range seeds {
			if j == i || o == s {
				continue
			}
			cell = clipHalfPlane(cell, s, o)
			if len(cell) == 0 {
				break
			}
		}
		if len(cell) >= 3 {
			cells[i] = cell
		}
	}
	return cells
}

func duplicateOf(seeds []point, i int) bool {
	for j := 0; j < i; j++ {
		if seeds[j] == seeds[i] {
			return true
		}
	}
	return false
}

// clipHalfPlane keeps the part of poly closer to s than to o
// (Sutherland-Hodgman against the perpendicular bisector).
func clipHalfPlane(poly []point, s, o point) []point {
	nx, ny := o.x-s.x, o.y-s.y
	mx, my := (s.x+o.x)/2, (s.y+o.y)/2
	side := func(p point) float64 { return (p.x-mx)*nx + (p.y-my)*ny }

	out := make([]point, 0, len(poly)+1)
	for k, cur := range poly {
		prev := poly[(k+len(poly)-1)%len(poly)]
		dc, dp := side(cur), side(prev)
		if dc <= 0 {
			if dp > 0 {
				out = append(out, intersect(prev, cur, dp, dc))
			}
			out = append(out, cur)
		} else if dp <= 0 {
			out = append(out, intersect(prev, cur, dp, dc))
		}
	}
	return out
}

func intersect(a, b point, da, db float64) point {
	t := da / (da - db)
	return point{a.x + t*(b.x-a.x), a.y + t*(b.y-a.y)}
}

// area returns the absolute area of poly.
func area(poly []point) float64 {
	var sum float64
	for k, p := range poly {
		q := poly[(k+1)%len(poly)]
		sum += p.x*q.y - q.x*p.y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
