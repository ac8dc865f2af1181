package simulation

import (
	"math"
	"sort"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/aggregates"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
)

// body is the simulation's working representation of one node. Indices
// into the body slice are stable for the lifetime of a run.
type body struct {
	id       string
	x, y     float64
	dx, dy   float64
	cluster  string
	dateNorm float64
}

// link is a resolved edge between two body indices
type link struct {
	a, b   int
	weight float64
}

// layoutState holds the mutable per-run simulation state
type layoutState struct {
	bodies  []body
	links   []link
	byID    map[string]int
	byCl    map[string][]int
	k       float64
	centerX float64
	centerY float64
	config  ForceConfig
}

// newLayoutState flattens the graph into simulation bodies. Node order
// is sorted by id so runs over the same graph are deterministic.
func newLayoutState(graph *aggregates.DreamGraph, config ForceConfig) *layoutState {
	nodes := graph.GetNodes()
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID().String() < nodes[j].ID().String()
	})

	minDate, maxDate, haveRange := graph.DateRange()

	s := &layoutState{
		bodies:  make([]body, 0, len(nodes)),
		byID:    make(map[string]int, len(nodes)),
		byCl:    make(map[string][]int),
		centerX: config.Width / 2,
		centerY: config.Height / 2,
		config:  config,
	}
	if n := len(nodes); n > 0 {
		s.k = math.Sqrt(config.Width * config.Height / float64(n))
	}

	for i, node := range nodes {
		dateNorm := 0.5
		if haveRange {
			dateNorm = node.Date().Normalized(minDate, maxDate)
		}
		s.bodies = append(s.bodies, body{
			id:       node.ID().String(),
			x:        node.Position().X(),
			y:        node.Position().Y(),
			cluster:  node.ClusterID(),
			dateNorm: dateNorm,
		})
		s.byID[node.ID().String()] = i
		if c := node.ClusterID(); c != "" {
			s.byCl[c] = append(s.byCl[c], i)
		}
	}

	for _, edge := range graph.GetEdges() {
		a, okA := s.byID[edge.SourceID().String()]
		b, okB := s.byID[edge.TargetID().String()]
		if !okA || !okB {
			continue
		}
		s.links = append(s.links, link{a: a, b: b, weight: float64(edge.SharedThemeCount())})
	}

	return s
}

// resetDisplacements zeroes accumulated forces before a tick
func (s *layoutState) resetDisplacements() {
	for i := range s.bodies {
		s.bodies[i].dx = 0
		s.bodies[i].dy = 0
	}
}

// applyRepulsion pushes every pair of bodies apart with force k²/d.
// Above the Barnes-Hut threshold the pairwise loop is replaced with a
// quadtree approximation.
func (s *layoutState) applyRepulsion() {
	if len(s.bodies) >= s.config.BarnesHutAtNodes {
		s.applyBarnesHutRepulsion()
		return
	}
	strength := s.config.RepulsionStrength
	for i := range s.bodies {
		for j := i + 1; j < len(s.bodies); j++ {
			dx := s.bodies[i].x - s.bodies[j].x
			dy := s.bodies[i].y - s.bodies[j].y
			dist := math.Hypot(dx, dy)
			if dist < minSeparation {
				dx, dy, dist = jitter(i, j)
			}
			force := strength * s.k * s.k / dist
			fx := dx / dist * force
			fy := dy / dist * force
			s.bodies[i].dx += fx
			s.bodies[i].dy += fy
			s.bodies[j].dx -= fx
			s.bodies[j].dy -= fy
		}
	}
}

// applyAttraction pulls linked bodies together with force d²/k, scaled
// by the number of themes the pair shares
func (s *layoutState) applyAttraction() {
	for _, l := range s.links {
		a := &s.bodies[l.a]
		b := &s.bodies[l.b]
		dx := a.x - b.x
		dy := a.y - b.y
		dist := math.Hypot(dx, dy)
		if dist < minSeparation {
			continue
		}
		scale := s.config.AttractionBase + s.config.AttractionPerLink*(l.weight-1)
		force := scale * dist * dist / s.k
		fx := dx / dist * force
		fy := dy / dist * force
		a.dx -= fx
		a.dy -= fy
		b.dx += fx
		b.dy += fy
	}
}

// applyClusterAttraction draws same-cluster bodies together. Small
// clusters use pairwise springs; large clusters attract members toward
// the cluster centroid instead, which is linear in cluster size.
func (s *layoutState) applyClusterAttraction() {
	strength := s.config.ClusterStrength
	if strength == 0 {
		return
	}
	for _, members := range s.byCl {
		if len(members) < 2 {
			continue
		}
		if len(members) >= s.config.ClusterCentroidCutoff {
			s.attractToCentroid(members, strength)
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a := &s.bodies[members[i]]
				b := &s.bodies[members[j]]
				dx := a.x - b.x
				dy := a.y - b.y
				dist := math.Hypot(dx, dy)
				if dist < minSeparation {
					continue
				}
				force := strength * dist
				fx := dx / dist * force
				fy := dy / dist * force
				a.dx -= fx
				a.dy -= fy
				b.dx += fx
				b.dy += fy
			}
		}
	}
}

func (s *layoutState) attractToCentroid(members []int, strength float64) {
	var cx, cy float64
	for _, idx := range members {
		cx += s.bodies[idx].x
		cy += s.bodies[idx].y
	}
	cx /= float64(len(members))
	cy /= float64(len(members))
	for _, idx := range members {
		b := &s.bodies[idx]
		dx := cx - b.x
		dy := cy - b.y
		dist := math.Hypot(dx, dy)
		if dist < minSeparation {
			continue
		}
		force := strength * dist * float64(len(members)-1)
		b.dx += dx / dist * force
		b.dy += dy / dist * force
	}
}

// applyChronologicalDrift biases each body's x toward a target column
// proportional to its normalized date, oldest left to newest right
func (s *layoutState) applyChronologicalDrift() {
	strength := s.config.ChronoStrength
	if strength == 0 {
		return
	}
	margin := s.config.Width * 0.1
	usable := s.config.Width - 2*margin
	for i := range s.bodies {
		target := margin + s.bodies[i].dateNorm*usable
		s.bodies[i].dx += (target - s.bodies[i].x) * strength
	}
}

// applyCentering pulls everything gently toward the viewport center so
// disconnected components do not drift away
func (s *layoutState) applyCentering() {
	strength := s.config.CenterStrength
	if strength == 0 {
		return
	}
	for i := range s.bodies {
		s.bodies[i].dx += (s.centerX - s.bodies[i].x) * strength
		s.bodies[i].dy += (s.centerY - s.bodies[i].y) * strength
	}
}

// integrate moves each body by its accumulated displacement, limited by
// the current temperature and the hard displacement clamp. Returns the
// total distance moved across all bodies.
func (s *layoutState) integrate(temperature float64) float64 {
	limit := math.Min(temperature, s.config.MaxDisplacement)
	total := 0.0
	for i := range s.bodies {
		b := &s.bodies[i]
		disp := math.Hypot(b.dx, b.dy)
		if disp < 1e-12 {
			continue
		}
		step := math.Min(disp, limit)
		b.x += b.dx / disp * step
		b.y += b.dy / disp * step
		total += step
	}
	return total
}

// positions copies the current body positions into a map keyed by node id
func (s *layoutState) positions() map[string]valueobjects.Position {
	out := make(map[string]valueobjects.Position, len(s.bodies))
	for i := range s.bodies {
		p, err := valueobjects.NewPosition(s.bodies[i].x, s.bodies[i].y)
		if err != nil {
			continue
		}
		out[s.bodies[i].id] = p
	}
	return out
}

const minSeparation = 0.01

// jitter separates coincident bodies deterministically so repulsion has
// a direction to act along
func jitter(i, j int) (dx, dy, dist float64) {
	angle := float64(i*31+j*17) * 0.1
	return math.Cos(angle) * minSeparation, math.Sin(angle) * minSeparation, minSeparation
}
