package view

import (
	"strings"
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/entities"
)

// Filter narrows the visible node set. An empty filter matches every
// node. Filtered-out nodes are dimmed, not removed: they stay in the
// simulation so the layout does not reflow when filters change.
type Filter struct {
	Themes     []string
	Characters []string
	From       *time.Time
	To         *time.Time
}

// IsZero reports whether the filter matches everything
func (f Filter) IsZero() bool {
	return len(f.Themes) == 0 && len(f.Characters) == 0 && f.From == nil && f.To == nil
}

// Matches reports whether the node passes the filter. Theme and
// character terms are OR within a facet and AND across facets, matching
// case-insensitively.
func (f Filter) Matches(node *entities.DreamNode) bool {
	if len(f.Themes) > 0 && !anyOverlap(f.Themes, node.Themes()) {
		return false
	}
	if len(f.Characters) > 0 && !anyOverlap(f.Characters, node.Characters()) {
		return false
	}
	date := node.Date().Time()
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

func anyOverlap(wanted, have []string) bool {
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		for _, h := range have {
			if w == strings.ToLower(h) {
				return true
			}
		}
	}
	return false
}
