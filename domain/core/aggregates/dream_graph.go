package aggregates

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/entities"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/events"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// DreamGraph is the aggregate root for one Oneirograph dataset.
// It ensures consistency boundaries for the nodes, edges and indexes
// built by the data transform, and is rebuilt wholesale on every
// full data refresh.
type DreamGraph struct {
	id         GraphID
	nodes      map[valueobjects.NodeID]*entities.DreamNode
	edges      map[string]*entities.Edge
	themeIndex map[string][]valueobjects.NodeID
	clusters   map[string][]valueobjects.NodeID
	createdAt  time.Time
	updatedAt  time.Time
	version    int
	events     []events.DomainEvent
}

// NewDreamGraph creates an empty graph aggregate
func NewDreamGraph() *DreamGraph {
	now := time.Now()
	return &DreamGraph{
		id:         NewGraphID(),
		nodes:      make(map[valueobjects.NodeID]*entities.DreamNode),
		edges:      make(map[string]*entities.Edge),
		themeIndex: make(map[string][]valueobjects.NodeID),
		clusters:   make(map[string][]valueobjects.NodeID),
		createdAt:  now,
		updatedAt:  now,
		version:    1,
		events:     []events.DomainEvent{},
	}
}

// ID returns the graph's unique identifier
func (g *DreamGraph) ID() GraphID {
	return g.id
}

// AddNode adds a node to the graph and indexes its themes and cluster
func (g *DreamGraph) AddNode(node *entities.DreamNode) error {
	if node == nil {
		return errors.New("node cannot be nil")
	}

	nodeID := node.ID()
	if _, exists := g.nodes[nodeID]; exists {
		return errors.New("node already exists in graph")
	}

	g.nodes[nodeID] = node
	for _, theme := range node.Themes() {
		g.themeIndex[theme] = append(g.themeIndex[theme], nodeID)
	}
	if cluster := node.ClusterID(); cluster != "" {
		g.clusters[cluster] = append(g.clusters[cluster], nodeID)
	}
	g.touch()

	g.addEvent(events.NewNodeAddedToGraph(g.id.String(), nodeID, g.updatedAt))
	return nil
}

// AddEdge registers a shared-theme edge. Both endpoints must already be
// part of the graph, and each unordered pair may only be linked once.
func (g *DreamGraph) AddEdge(edge *entities.Edge) error {
	if edge == nil {
		return errors.New("edge cannot be nil")
	}
	if _, exists := g.nodes[edge.SourceID()]; !exists {
		return errors.New("edge references unknown source node")
	}
	if _, exists := g.nodes[edge.TargetID()]; !exists {
		return errors.New("edge references unknown target node")
	}
	if _, exists := g.edges[edge.Key()]; exists {
		return errors.New("edge already exists")
	}

	g.edges[edge.Key()] = edge
	g.touch()

	g.addEvent(events.NewNodesLinked(edge.SourceID(), edge.TargetID(), edge.SharedThemeCount(), g.updatedAt))
	return nil
}

// GetNode retrieves a node by ID
func (g *DreamGraph) GetNode(nodeID valueobjects.NodeID) (*entities.DreamNode, error) {
	node, exists := g.nodes[nodeID]
	if !exists {
		return nil, errors.New("node not found")
	}
	return node, nil
}

// HasNode checks if a node exists in the graph without error
func (g *DreamGraph) HasNode(nodeID valueobjects.NodeID) bool {
	_, exists := g.nodes[nodeID]
	return exists
}

// GetNodes returns all nodes in the graph
func (g *DreamGraph) GetNodes() []*entities.DreamNode {
	nodes := make([]*entities.DreamNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// GetEdges returns all edges in the graph
func (g *DreamGraph) GetEdges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	return edges
}

// NodesByTheme returns the ids of nodes carrying the given theme
func (g *DreamGraph) NodesByTheme(theme string) []valueobjects.NodeID {
	ids := g.themeIndex[theme]
	out := make([]valueobjects.NodeID, len(ids))
	copy(out, ids)
	return out
}

// ClusterMembers returns the ids of nodes assigned to the given cluster
func (g *DreamGraph) ClusterMembers(clusterID string) []valueobjects.NodeID {
	ids := g.clusters[clusterID]
	out := make([]valueobjects.NodeID, len(ids))
	copy(out, ids)
	return out
}

// Clusters returns the cluster assignment map
func (g *DreamGraph) Clusters() map[string][]valueobjects.NodeID {
	out := make(map[string][]valueobjects.NodeID, len(g.clusters))
	for cluster, ids := range g.clusters {
		members := make([]valueobjects.NodeID, len(ids))
		copy(members, ids)
		out[cluster] = members
	}
	return out
}

// NodeCount returns the number of nodes in the graph
func (g *DreamGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph
func (g *DreamGraph) EdgeCount() int {
	return len(g.edges)
}

// InferredDateCount returns how many nodes carry a synthetic fallback date
func (g *DreamGraph) InferredDateCount() int {
	count := 0
	for _, node := range g.nodes {
		if node.Date().Inferred() {
			count++
		}
	}
	return count
}

// DateRange returns the earliest and latest non-inferred dates in the
// graph. ok is false when no node carries a parsed date.
func (g *DreamGraph) DateRange() (min, max time.Time, ok bool) {
	for _, node := range g.nodes {
		if node.Date().Inferred() {
			continue
		}
		d := node.Date().Time()
		if !ok {
			min, max, ok = d, d, true
			continue
		}
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, ok
}

// MarkBuilt records that the data transform finished populating the graph
func (g *DreamGraph) MarkBuilt() {
	g.touch()
	g.addEvent(events.NewGraphBuilt(
		g.id.String(),
		len(g.nodes),
		len(g.edges),
		g.InferredDateCount(),
		g.updatedAt,
	))
}

// Validate ensures graph invariants
func (g *DreamGraph) Validate() error {
	// Check for orphaned edges
	for _, edge := range g.edges {
		if _, exists := g.nodes[edge.SourceID()]; !exists {
			return errors.New("edge references non-existent source node")
		}
		if _, exists := g.nodes[edge.TargetID()]; !exists {
			return errors.New("edge references non-existent target node")
		}
	}

	// Check index consistency
	for theme, ids := range g.themeIndex {
		for _, id := range ids {
			node, exists := g.nodes[id]
			if !exists {
				return errors.New("theme index references non-existent node")
			}
			if !node.HasTheme(theme) {
				return errors.New("theme index entry does not match node themes")
			}
		}
	}
	for cluster, ids := range g.clusters {
		for _, id := range ids {
			node, exists := g.nodes[id]
			if !exists {
				return errors.New("cluster index references non-existent node")
			}
			if node.ClusterID() != cluster {
				return errors.New("cluster index entry does not match node assignment")
			}
		}
	}

	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *DreamGraph) GetUncommittedEvents() []events.DomainEvent {
	all := make([]events.DomainEvent, len(g.events))
	copy(all, g.events)
	return all
}

// MarkEventsAsCommitted clears the uncommitted events
func (g *DreamGraph) MarkEventsAsCommitted() {
	g.events = []events.DomainEvent{}
}

// Private helper methods

func (g *DreamGraph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func (g *DreamGraph) touch() {
	g.updatedAt = time.Now()
	g.version++
}
