package simulation

import "math"

// bhNode is one cell of the Barnes-Hut quadtree. Leaves hold a single
// body index; internal cells hold aggregate mass and center of mass.
type bhNode struct {
	x, y, half float64
	mass       float64
	comX, comY float64
	bodyIdx    int
	children   [4]*bhNode
	leaf       bool
}

func newBHNode(x, y, half float64) *bhNode {
	return &bhNode{x: x, y: y, half: half, bodyIdx: -1, leaf: true}
}

// buildBarnesHutTree builds a quadtree over the current body positions.
// Returns nil for an empty body set.
func buildBarnesHutTree(bodies []body) *bhNode {
	if len(bodies) == 0 {
		return nil
	}
	minX, minY := bodies[0].x, bodies[0].y
	maxX, maxY := minX, minY
	for i := 1; i < len(bodies); i++ {
		minX = math.Min(minX, bodies[i].x)
		minY = math.Min(minY, bodies[i].y)
		maxX = math.Max(maxX, bodies[i].x)
		maxY = math.Max(maxY, bodies[i].y)
	}
	half := math.Max(maxX-minX, maxY-minY)/2 + 1
	root := newBHNode((minX+maxX)/2, (minY+maxY)/2, half)
	for i := range bodies {
		root.insert(bodies, i, 0)
	}
	return root
}

// maxBHDepth stops subdivision for pathological coincident points
const maxBHDepth = 32

func (n *bhNode) insert(bodies []body, idx, depth int) {
	if n.leaf && n.bodyIdx < 0 {
		n.bodyIdx = idx
		n.mass = 1
		n.comX = bodies[idx].x
		n.comY = bodies[idx].y
		return
	}

	if n.leaf {
		if depth >= maxBHDepth {
			// coincident bodies share the cell as aggregate mass
			n.mass++
			n.comX += (bodies[idx].x - n.comX) / n.mass
			n.comY += (bodies[idx].y - n.comY) / n.mass
			return
		}
		existing := n.bodyIdx
		n.bodyIdx = -1
		n.leaf = false
		n.childFor(bodies[existing].x, bodies[existing].y).insert(bodies, existing, depth+1)
	}

	n.mass++
	n.comX += (bodies[idx].x - n.comX) / n.mass
	n.comY += (bodies[idx].y - n.comY) / n.mass
	n.childFor(bodies[idx].x, bodies[idx].y).insert(bodies, idx, depth+1)
}

func (n *bhNode) childFor(x, y float64) *bhNode {
	quadrant := 0
	cx, cy := n.x, n.y
	h := n.half / 2
	if x >= n.x {
		quadrant |= 1
		cx += h
	} else {
		cx -= h
	}
	if y >= n.y {
		quadrant |= 2
		cy += h
	} else {
		cy -= h
	}
	if n.children[quadrant] == nil {
		n.children[quadrant] = newBHNode(cx, cy, h)
	}
	return n.children[quadrant]
}

// force accumulates the approximate repulsion on body idx. Cells whose
// size-to-distance ratio is below theta are treated as a single point.
func (n *bhNode) force(bodies []body, idx int, k2, strength, theta float64) (fx, fy float64) {
	if n.mass == 0 {
		return 0, 0
	}
	dx := bodies[idx].x - n.comX
	dy := bodies[idx].y - n.comY
	dist := math.Hypot(dx, dy)

	if n.leaf || (2*n.half)/dist < theta {
		if n.leaf && n.bodyIdx == idx {
			return 0, 0
		}
		if dist < minSeparation {
			dx, dy, dist = jitter(idx, int(n.mass))
		}
		force := strength * k2 * n.mass / dist
		return dx / dist * force, dy / dist * force
	}

	for _, child := range n.children {
		if child == nil {
			continue
		}
		cfx, cfy := child.force(bodies, idx, k2, strength, theta)
		fx += cfx
		fy += cfy
	}
	return fx, fy
}

// applyBarnesHutRepulsion approximates pairwise repulsion in O(n log n)
func (s *layoutState) applyBarnesHutRepulsion() {
	root := buildBarnesHutTree(s.bodies)
	if root == nil {
		return
	}
	k2 := s.k * s.k
	for i := range s.bodies {
		fx, fy := root.force(s.bodies, i, k2, s.config.RepulsionStrength, s.config.BarnesHutTheta)
		s.bodies[i].dx += fx
		s.bodies[i].dy += fy
	}
}
