package nn

import "github.com/spinn-ml/spinn/internal/sampler"

// SampleNodes produces the initial node sets for a field network over a
// domain: free (trainable) nodes drawn uniformly over the interior and
// fixed nodes laid out evenly along the four boundary edges.
//
// Bottom and top edges carry the corners; left and right edges skip their
// endpoints so no corner appears twice.
func SampleNodes(r *sampler.Rand, d sampler.Domain, interior, perEdge int) (free, fixed []Point) {
	ir := r.Split()
	free = make([]Point, interior)
	for i := range free {
		free[i] = Point{X: ir.Uniform(d.X0, d.X1), Y: ir.Uniform(d.Y0, d.Y1)}
	}

	if perEdge <= 0 {
		return free, nil
	}
	if perEdge == 1 {
		return free, []Point{
			{X: d.X0 + d.Width()/2, Y: d.Y0},
			{X: d.X0 + d.Width()/2, Y: d.Y1},
			{X: d.X0, Y: d.Y0 + d.Height()/2},
			{X: d.X1, Y: d.Y0 + d.Height()/2},
		}
	}

	fixed = make([]Point, 0, 4*perEdge)
	for i := 0; i < perEdge; i++ {
		x := d.X0 + d.Width()*float64(i)/float64(perEdge-1)
		fixed = append(fixed, Point{X: x, Y: d.Y0}, Point{X: x, Y: d.Y1})
	}
	for i := 1; i < perEdge-1; i++ {
		y := d.Y0 + d.Height()*float64(i)/float64(perEdge-1)
		fixed = append(fixed, Point{X: d.X0, Y: y}, Point{X: d.X1, Y: y})
	}
	return free, fixed
}
