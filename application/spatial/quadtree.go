// Package spatial provides the hit-test index and cluster boundary
// geometry used by the render controller.
package spatial

import (
	"math"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
)

// Point is one indexed node position
type Point struct {
	ID       valueobjects.NodeID
	Position valueobjects.Position
}

const quadtreeCapacity = 8

// Quadtree is a point index over node positions, rebuilt whenever a
// snapshot is applied. Not safe for concurrent mutation.
type Quadtree struct {
	bounds   rect
	points   []Point
	children [4]*Quadtree
	size     int
}

type rect struct {
	x, y, half float64
}

func (r rect) contains(p valueobjects.Position) bool {
	return p.X() >= r.x-r.half && p.X() < r.x+r.half &&
		p.Y() >= r.y-r.half && p.Y() < r.y+r.half
}

func (r rect) intersectsCircle(cx, cy, radius float64) bool {
	dx := math.Max(math.Abs(cx-r.x)-r.half, 0)
	dy := math.Max(math.Abs(cy-r.y)-r.half, 0)
	return dx*dx+dy*dy <= radius*radius
}

// NewQuadtree builds an index over the given points. Bounds are derived
// from the point set, so callers pass whatever coordinate space the
// simulation produced.
func NewQuadtree(points []Point) *Quadtree {
	if len(points) == 0 {
		return &Quadtree{bounds: rect{half: 1}}
	}
	minX, minY := points[0].Position.X(), points[0].Position.Y()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.Position.X())
		minY = math.Min(minY, p.Position.Y())
		maxX = math.Max(maxX, p.Position.X())
		maxY = math.Max(maxY, p.Position.Y())
	}
	half := math.Max(maxX-minX, maxY-minY)/2 + 1
	qt := &Quadtree{bounds: rect{x: (minX + maxX) / 2, y: (minY + maxY) / 2, half: half}}
	for _, p := range points {
		qt.insert(p, 0)
	}
	return qt
}

const maxQuadtreeDepth = 24

func (q *Quadtree) insert(p Point, depth int) {
	q.size++
	if q.children[0] == nil {
		if len(q.points) < quadtreeCapacity || depth >= maxQuadtreeDepth {
			q.points = append(q.points, p)
			return
		}
		q.subdivide()
		for _, existing := range q.points {
			q.childFor(existing.Position).insert(existing, depth+1)
		}
		q.points = nil
	}
	q.childFor(p.Position).insert(p, depth+1)
}

func (q *Quadtree) subdivide() {
	h := q.bounds.half / 2
	q.children[0] = &Quadtree{bounds: rect{x: q.bounds.x - h, y: q.bounds.y - h, half: h}}
	q.children[1] = &Quadtree{bounds: rect{x: q.bounds.x + h, y: q.bounds.y - h, half: h}}
	q.children[2] = &Quadtree{bounds: rect{x: q.bounds.x - h, y: q.bounds.y + h, half: h}}
	q.children[3] = &Quadtree{bounds: rect{x: q.bounds.x + h, y: q.bounds.y + h, half: h}}
}

func (q *Quadtree) childFor(p valueobjects.Position) *Quadtree {
	idx := 0
	if p.X() >= q.bounds.x {
		idx |= 1
	}
	if p.Y() >= q.bounds.y {
		idx |= 2
	}
	return q.children[idx]
}

// Size reports the number of indexed points
func (q *Quadtree) Size() int {
	return q.size
}

// Nearest returns the closest point within radius of (x, y). ok is
// false when nothing falls inside the radius.
func (q *Quadtree) Nearest(x, y, radius float64) (Point, bool) {
	best := Point{}
	bestDist := radius
	found := false
	q.nearest(x, y, &best, &bestDist, &found)
	return best, found
}

func (q *Quadtree) nearest(x, y float64, best *Point, bestDist *float64, found *bool) {
	if !q.bounds.intersectsCircle(x, y, *bestDist) {
		return
	}
	for _, p := range q.points {
		d := math.Hypot(p.Position.X()-x, p.Position.Y()-y)
		if d <= *bestDist {
			*best = p
			*bestDist = d
			*found = true
		}
	}
	for _, child := range q.children {
		if child != nil {
			child.nearest(x, y, best, bestDist, found)
		}
	}
}

// QueryCircle returns all points within radius of (x, y)
func (q *Quadtree) QueryCircle(x, y, radius float64) []Point {
	var out []Point
	q.queryCircle(x, y, radius, &out)
	return out
}

func (q *Quadtree) queryCircle(x, y, radius float64, out *[]Point) {
	if !q.bounds.intersectsCircle(x, y, radius) {
		return
	}
	for _, p := range q.points {
		if math.Hypot(p.Position.X()-x, p.Position.Y()-y) <= radius {
			*out = append(*out, p)
		}
	}
	for _, child := range q.children {
		if child != nil {
			child.queryCircle(x, y, radius, out)
		}
	}
}
