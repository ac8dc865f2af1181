package entities

import (
	"sort"

	"github.com/google/uuid"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	pkgerrors "github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// Edge is an immutable connection between two dream nodes that share at
// least one theme. Endpoints are stored in canonical order so each
// unordered pair yields exactly one edge.
type Edge struct {
	id           string
	sourceID     valueobjects.NodeID
	targetID     valueobjects.NodeID
	sharedThemes []string
}

// NewEdge creates an edge between two nodes. The endpoint with the smaller
// string identifier becomes the source, regardless of argument order.
func NewEdge(a, b valueobjects.NodeID, sharedThemes []string) (*Edge, error) {
	if a.IsZero() || b.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if a.Equals(b) {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}
	themes := NormalizeThemes(sharedThemes)
	if len(themes) == 0 {
		return nil, pkgerrors.NewValidationError("edge requires at least one shared theme")
	}
	sort.Strings(themes)

	source, target := a, b
	if target.String() < source.String() {
		source, target = target, source
	}

	return &Edge{
		id:           uuid.New().String(),
		sourceID:     source,
		targetID:     target,
		sharedThemes: themes,
	}, nil
}

// ID returns the edge's unique identifier
func (e *Edge) ID() string {
	return e.id
}

// SourceID returns the canonical first endpoint
func (e *Edge) SourceID() valueobjects.NodeID {
	return e.sourceID
}

// TargetID returns the canonical second endpoint
func (e *Edge) TargetID() valueobjects.NodeID {
	return e.targetID
}

// SharedThemeCount returns the edge weight
func (e *Edge) SharedThemeCount() int {
	return len(e.sharedThemes)
}

// SharedThemes returns the themes both endpoints carry
func (e *Edge) SharedThemes() []string {
	themes := make([]string, len(e.sharedThemes))
	copy(themes, e.sharedThemes)
	return themes
}

// Key returns the canonical pair key used for deduplication
func (e *Edge) Key() string {
	return e.sourceID.String() + "->" + e.targetID.String()
}

// Connects reports whether the edge touches the given node
func (e *Edge) Connects(id valueobjects.NodeID) bool {
	return e.sourceID.Equals(id) || e.targetID.Equals(id)
}

// Other returns the opposite endpoint, or the zero NodeID when the edge
// does not touch the given node
func (e *Edge) Other(id valueobjects.NodeID) valueobjects.NodeID {
	switch {
	case e.sourceID.Equals(id):
		return e.targetID
	case e.targetID.Equals(id):
		return e.sourceID
	default:
		return valueobjects.NodeID{}
	}
}
