package spatial

import (
	"math"
	"sort"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/taxonomy"
)

// ClusterBoundary is the drawable outline of one cluster. Hull holds
// the padded outline vertices; when Circular is set the cluster was too
// small or degenerate for a polygon and Center/Radius describe a circle
// instead.
type ClusterBoundary struct {
	ClusterID string
	Hull      []valueobjects.Position
	Center    valueobjects.Position
	Radius    float64
	Circular  bool
	Label     string
	Color     string
}

// ComputeBoundaries builds a boundary per cluster from the visible
// member positions. Clusters with no visible members are skipped.
// Output is sorted by cluster id.
func ComputeBoundaries(members map[string][]valueobjects.Position, tax taxonomy.Manager, padding float64) []ClusterBoundary {
	out := make([]ClusterBoundary, 0, len(members))
	for clusterID, positions := range members {
		if len(positions) == 0 {
			continue
		}
		boundary := boundaryFor(clusterID, positions, padding)
		if tax != nil {
			boundary.Label = tax.ClusterLabel(clusterID)
			boundary.Color = tax.ClusterColor(clusterID)
		}
		out = append(out, boundary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClusterID < out[j].ClusterID
	})
	return out
}

func boundaryFor(clusterID string, positions []valueobjects.Position, padding float64) ClusterBoundary {
	center := centroid(positions)
	hull := ConvexHull(positions)

	// fewer than three distinct hull vertices means the members are a
	// point, a pair, or collinear; fall back to a circle
	if len(hull) < 3 {
		radius := padding
		for _, p := range positions {
			if d := p.DistanceTo(center); d+padding > radius {
				radius = d + padding
			}
		}
		return ClusterBoundary{
			ClusterID: clusterID,
			Center:    center,
			Radius:    radius,
			Circular:  true,
		}
	}

	return ClusterBoundary{
		ClusterID: clusterID,
		Hull:      padHull(hull, center, padding),
		Center:    center,
	}
}

// ConvexHull computes the convex hull of the points using the monotone
// chain algorithm. The result is in counter-clockwise order without a
// repeated closing vertex. Collinear inputs yield fewer than three
// vertices.
func ConvexHull(points []valueobjects.Position) []valueobjects.Position {
	pts := make([]valueobjects.Position, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X() != pts[j].X() {
			return pts[i].X() < pts[j].X()
		}
		return pts[i].Y() < pts[j].Y()
	})
	pts = dedupe(pts)

	if len(pts) < 3 {
		return pts
	}

	var lower []valueobjects.Position
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []valueobjects.Position
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// PointInPolygon reports whether (x, y) lies inside the polygon using
// ray casting. Vertices on the boundary count as inside.
func PointInPolygon(x, y float64, polygon []valueobjects.Position) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		xi, yi := polygon[i].X(), polygon[i].Y()
		xj, yj := polygon[j].X(), polygon[j].Y()
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Contains reports whether the boundary covers (x, y)
func (b ClusterBoundary) Contains(x, y float64) bool {
	if b.Circular {
		return math.Hypot(x-b.Center.X(), y-b.Center.Y()) <= b.Radius
	}
	return PointInPolygon(x, y, b.Hull)
}

func centroid(positions []valueobjects.Position) valueobjects.Position {
	var sx, sy float64
	for _, p := range positions {
		sx += p.X()
		sy += p.Y()
	}
	n := float64(len(positions))
	c, _ := valueobjects.NewPosition(sx/n, sy/n)
	return c
}

// padHull pushes each hull vertex outward from the centroid so the
// outline clears the node glyphs it encloses
func padHull(hull []valueobjects.Position, center valueobjects.Position, padding float64) []valueobjects.Position {
	out := make([]valueobjects.Position, 0, len(hull))
	for _, p := range hull {
		dx := p.X() - center.X()
		dy := p.Y() - center.Y()
		dist := math.Hypot(dx, dy)
		if dist < 1e-9 {
			out = append(out, p)
			continue
		}
		padded, err := valueobjects.NewPosition(
			p.X()+dx/dist*padding,
			p.Y()+dy/dist*padding,
		)
		if err != nil {
			padded = p
		}
		out = append(out, padded)
	}
	return out
}

func cross(o, a, b valueobjects.Position) float64 {
	return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
}

func dedupe(sorted []valueobjects.Position) []valueobjects.Position {
	out := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p.X() != sorted[i-1].X() || p.Y() != sorted[i-1].Y() {
			out = append(out, p)
		}
	}
	return out
}
