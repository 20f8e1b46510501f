package nn

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGeometry reports a center set whose shared initial bandwidth
// collapses to zero or below, which would divide by zero in the offset map.
var ErrDegenerateGeometry = errors.New("nn: degenerate center geometry")

// Point is a 2D node position.
type Point struct {
	X, Y float64
}

// BasisLayer holds the network's center positions and per-center bandwidths
// and maps a query point to normalized offsets from every center.
//
// Centers are the concatenation free ++ fixed, and that order is
// significant: it defines the alignment with the readout weights. Free
// centers (positions and bandwidths) are trainable Parameters; fixed
// centers are Frozen and read through the gradient-blocked path — their
// values shape the forward computation but contribute zero gradient.
type BasisLayer struct {
	freeX, freeY, freeH *Parameter
	fixedX, fixedY      *Frozen
	fixedH              *Frozen
}

// NewBasisLayer builds a layer from an initial free-point set and a fixed-
// point set.
//
// Every center, free and fixed alike, starts with the single shared
// bandwidth dx = range(x of free points) / sqrt(total center count): one
// global scale derived from domain extent and center density. Training may
// subsequently separate the free bandwidths.
//
// A free set whose x coordinates have zero range (in particular a single
// free point) yields dx = 0 and is rejected with ErrDegenerateGeometry.
func NewBasisLayer(free, fixed []Point) (*BasisLayer, error) {
	if len(free) == 0 {
		return nil, fmt.Errorf("%w: no free centers", ErrDegenerateGeometry)
	}
	minX, maxX := free[0].X, free[0].X
	for _, p := range free[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	total := len(free) + len(fixed)
	dx := (maxX - minX) / math.Sqrt(float64(total))
	if dx <= 0 {
		return nil, fmt.Errorf("%w: initial bandwidth %g from %d free centers",
			ErrDegenerateGeometry, dx, len(free))
	}

	fx := make([]float64, len(free))
	fy := make([]float64, len(free))
	fh := make([]float64, len(free))
	for i, p := range free {
		fx[i], fy[i], fh[i] = p.X, p.Y, dx
	}
	gx := make([]float64, len(fixed))
	gy := make([]float64, len(fixed))
	gh := make([]float64, len(fixed))
	for i, p := range fixed {
		gx[i], gy[i], gh[i] = p.X, p.Y, dx
	}

	return &BasisLayer{
		freeX:  NewParameter("centers.free.x", fx),
		freeY:  NewParameter("centers.free.y", fy),
		freeH:  NewParameter("centers.free.h", fh),
		fixedX: NewFrozen("centers.fixed.x", gx),
		fixedY: NewFrozen("centers.fixed.y", gy),
		fixedH: NewFrozen("centers.fixed.h", gh),
	}, nil
}

// NumFree returns the number of trainable centers.
func (b *BasisLayer) NumFree() int { return b.freeX.Len() }

// NumCenters returns the total center count, free ++ fixed.
func (b *BasisLayer) NumCenters() int { return b.freeX.Len() + b.fixedX.Len() }

// Parameters returns the layer's trainable parameters. Fixed centers are
// absent by type.
func (b *BasisLayer) Parameters() []*Parameter {
	return []*Parameter{b.freeX, b.freeY, b.freeH}
}

// center returns the i-th center of the concatenated free ++ fixed sequence
// on the plain-float path.
func (b *BasisLayer) center(i int) (cx, cy, h float64) {
	if i < b.freeX.Len() {
		return b.freeX.data[i], b.freeY.data[i], b.freeH.data[i]
	}
	j := i - b.freeX.Len()
	return b.fixedX.data[j], b.fixedY.data[j], b.fixedH.data[j]
}

// Offsets returns, for every center c, the normalized offset pair
// ((x − c.x)/c.h, (y − c.y)/c.h) in free ++ fixed order.
func (b *BasisLayer) Offsets(x, y float64) [][2]float64 {
	n := b.NumCenters()
	out := make([][2]float64, n)
	for i := range out {
		cx, cy, h := b.center(i)
		out[i] = [2]float64{(x - cx) / h, (y - cy) / h}
	}
	return out
}
