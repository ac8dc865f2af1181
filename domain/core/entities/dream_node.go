package entities

import (
	"strings"
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	pkgerrors "github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// DreamNode is the graph vertex representing one journal entry.
// This is a rich domain model with encapsulated state: the position is
// owned exclusively by the simulation engine while a run is active, and
// read-only to every other component between snapshots.
type DreamNode struct {
	// Private fields ensure encapsulation
	id         valueobjects.NodeID
	date       valueobjects.DreamDate
	title      string
	snippet    string
	themes     []string
	characters []string
	clusterID  string
	position   valueobjects.Position
	velocity   valueobjects.Vector
	createdAt  time.Time
}

// NewDreamNode creates a node with full validation. Themes and characters
// are normalized (trimmed, lowercased, deduplicated) so theme matching for
// edges is case-insensitive.
func NewDreamNode(
	id valueobjects.NodeID,
	title string,
	snippet string,
	date valueobjects.DreamDate,
	themes []string,
	characters []string,
) (*DreamNode, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	return &DreamNode{
		id:         id,
		date:       date,
		title:      title,
		snippet:    snippet,
		themes:     NormalizeThemes(themes),
		characters: NormalizeThemes(characters),
		createdAt:  time.Now(),
	}, nil
}

// ID returns the node's unique identifier
func (n *DreamNode) ID() valueobjects.NodeID {
	return n.id
}

// Date returns the node's calendar date
func (n *DreamNode) Date() valueobjects.DreamDate {
	return n.date
}

// Title returns the entry title
func (n *DreamNode) Title() string {
	return n.title
}

// Snippet returns the lazily loaded content excerpt
func (n *DreamNode) Snippet() string {
	return n.snippet
}

// Themes returns the node's normalized theme identifiers
func (n *DreamNode) Themes() []string {
	themes := make([]string, len(n.themes))
	copy(themes, n.themes)
	return themes
}

// Characters returns the node's normalized character identifiers
func (n *DreamNode) Characters() []string {
	chars := make([]string, len(n.characters))
	copy(chars, n.characters)
	return chars
}

// HasTheme checks if the node carries a theme (case-insensitive)
func (n *DreamNode) HasTheme(theme string) bool {
	theme = strings.ToLower(strings.TrimSpace(theme))
	for _, t := range n.themes {
		if t == theme {
			return true
		}
	}
	return false
}

// SharedThemes returns themes present on both nodes
func (n *DreamNode) SharedThemes(other *DreamNode) []string {
	if other == nil {
		return nil
	}
	set := make(map[string]bool, len(n.themes))
	for _, t := range n.themes {
		set[t] = true
	}
	shared := []string{}
	for _, t := range other.themes {
		if set[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

// ClusterID returns the taxonomy cluster this node is assigned to,
// or empty for unclustered nodes
func (n *DreamNode) ClusterID() string {
	return n.clusterID
}

// AssignCluster sets the node's primary taxonomy cluster
func (n *DreamNode) AssignCluster(clusterID string) {
	n.clusterID = clusterID
}

// Position returns the node's current layout position
func (n *DreamNode) Position() valueobjects.Position {
	return n.position
}

// MoveTo updates the node's layout position. Only the simulation engine
// (or warm-start placement before a run) may call this.
func (n *DreamNode) MoveTo(position valueobjects.Position) {
	n.position = position
}

// Velocity returns the node's simulation velocity
func (n *DreamNode) Velocity() valueobjects.Vector {
	return n.velocity
}

// SetVelocity updates the node's simulation velocity
func (n *DreamNode) SetVelocity(v valueobjects.Vector) {
	n.velocity = v
}

// CreatedAt returns when the node was created
func (n *DreamNode) CreatedAt() time.Time {
	return n.createdAt
}

// NormalizeThemes trims, lowercases and deduplicates theme strings,
// dropping empties. Order of first occurrence is preserved.
func NormalizeThemes(themes []string) []string {
	normalized := []string{}
	seen := make(map[string]bool, len(themes))
	for _, t := range themes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	return normalized
}
