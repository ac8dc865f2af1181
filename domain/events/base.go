package events

import (
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Graph Events

// GraphBuilt is raised when the data transform finishes building a graph
type GraphBuilt struct {
	BaseEvent
	GraphID       string `json:"graph_id"`
	NodeCount     int    `json:"node_count"`
	EdgeCount     int    `json:"edge_count"`
	InferredDates int    `json:"inferred_dates"`
}

// NewGraphBuilt creates a GraphBuilt event
func NewGraphBuilt(graphID string, nodeCount, edgeCount, inferredDates int, timestamp time.Time) GraphBuilt {
	return GraphBuilt{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.built",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:       graphID,
		NodeCount:     nodeCount,
		EdgeCount:     edgeCount,
		InferredDates: inferredDates,
	}
}

// NodeAddedToGraph is raised when a node is added to a graph
type NodeAddedToGraph struct {
	BaseEvent
	GraphID string              `json:"graph_id"`
	NodeID  valueobjects.NodeID `json:"node_id"`
}

// NewNodeAddedToGraph creates a NodeAddedToGraph event
func NewNodeAddedToGraph(graphID string, nodeID valueobjects.NodeID, timestamp time.Time) NodeAddedToGraph {
	return NodeAddedToGraph{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.node_added",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID: graphID,
		NodeID:  nodeID,
	}
}

// NodesLinked is raised when two nodes are connected by a shared-theme edge
type NodesLinked struct {
	BaseEvent
	SourceID         valueobjects.NodeID `json:"source_id"`
	TargetID         valueobjects.NodeID `json:"target_id"`
	SharedThemeCount int                 `json:"shared_theme_count"`
}

// NewNodesLinked creates a NodesLinked event
func NewNodesLinked(sourceID, targetID valueobjects.NodeID, sharedThemeCount int, timestamp time.Time) NodesLinked {
	return NodesLinked{
		BaseEvent: BaseEvent{
			AggregateID: sourceID.String(),
			EventType:   "graph.nodes_linked",
			Timestamp:   timestamp,
			Version:     1,
		},
		SourceID:         sourceID,
		TargetID:         targetID,
		SharedThemeCount: sharedThemeCount,
	}
}

// Simulation Events

// SimulationStarted is raised when a layout run begins
type SimulationStarted struct {
	BaseEvent
	RunID     string `json:"run_id"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// NewSimulationStarted creates a SimulationStarted event
func NewSimulationStarted(runID string, nodeCount, edgeCount int, timestamp time.Time) SimulationStarted {
	return SimulationStarted{
		BaseEvent: BaseEvent{
			AggregateID: runID,
			EventType:   "simulation.started",
			Timestamp:   timestamp,
			Version:     1,
		},
		RunID:     runID,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}

// SimulationSettled is raised when a layout run reaches stability or its tick cap
type SimulationSettled struct {
	BaseEvent
	RunID  string `json:"run_id"`
	Ticks  int    `json:"ticks"`
	Reason string `json:"reason"`
}

// NewSimulationSettled creates a SimulationSettled event
func NewSimulationSettled(runID string, ticks int, reason string, timestamp time.Time) SimulationSettled {
	return SimulationSettled{
		BaseEvent: BaseEvent{
			AggregateID: runID,
			EventType:   "simulation.settled",
			Timestamp:   timestamp,
			Version:     1,
		},
		RunID:  runID,
		Ticks:  ticks,
		Reason: reason,
	}
}

// SimulationCancelled is raised when a run is superseded before settling
type SimulationCancelled struct {
	BaseEvent
	RunID string `json:"run_id"`
}

// NewSimulationCancelled creates a SimulationCancelled event
func NewSimulationCancelled(runID string, timestamp time.Time) SimulationCancelled {
	return SimulationCancelled{
		BaseEvent: BaseEvent{
			AggregateID: runID,
			EventType:   "simulation.cancelled",
			Timestamp:   timestamp,
			Version:     1,
		},
		RunID: runID,
	}
}

// View Events

// PanelExpanded is raised when a node's detail panel opens
type PanelExpanded struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewPanelExpanded creates a PanelExpanded event
func NewPanelExpanded(nodeID valueobjects.NodeID, timestamp time.Time) PanelExpanded {
	return PanelExpanded{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "view.panel_expanded",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID: nodeID,
	}
}

// PanelCollapsed is raised when the detail panel closes
type PanelCollapsed struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewPanelCollapsed creates a PanelCollapsed event
func NewPanelCollapsed(nodeID valueobjects.NodeID, timestamp time.Time) PanelCollapsed {
	return PanelCollapsed{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "view.panel_collapsed",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID: nodeID,
	}
}
