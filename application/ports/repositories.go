// Package ports defines the interfaces the Oneirograph consumes from its
// external collaborators: the dream entry source and the file-backed view
// persistence. Concrete implementations live under infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
)

// RawEntry is one dream entry as delivered by the metrics-extraction
// pipeline. Date stays a string here: parsing and fallback handling are
// the transform layer's responsibility.
type RawEntry struct {
	FilePath   string   `json:"file_path" yaml:"file_path"`
	BlockRef   string   `json:"block_ref,omitempty" yaml:"block_ref,omitempty"`
	Date       string   `json:"date" yaml:"date"`
	Title      string   `json:"title" yaml:"title"`
	Content    string   `json:"content" yaml:"content"`
	Themes     []string `json:"themes" yaml:"themes"`
	Characters []string `json:"characters,omitempty" yaml:"characters,omitempty"`
}

// EntrySource provides the raw entry list consumed by the data transform
type EntrySource interface {
	Entries(ctx context.Context) ([]RawEntry, error)
}

// LayoutCacheRepository persists last-known node positions keyed by node
// id, enabling warm-start instead of cold random placement on reopen
type LayoutCacheRepository interface {
	Load(ctx context.Context) (map[string]valueobjects.Position, error)
	Save(ctx context.Context, positions map[string]valueobjects.Position) error
}

// ViewStateRecord is the persisted shape of the view's zoom/pan/filter
// state, written at view close and on settle
type ViewStateRecord struct {
	Zoom         float64    `json:"zoom"`
	PanX         float64    `json:"pan_x"`
	PanY         float64    `json:"pan_y"`
	FilterThemes []string   `json:"filter_themes,omitempty"`
	FilterChars  []string   `json:"filter_characters,omitempty"`
	FilterFrom   *time.Time `json:"filter_from,omitempty"`
	FilterTo     *time.Time `json:"filter_to,omitempty"`
	SavedAt      time.Time  `json:"saved_at"`
}

// ViewStateRepository persists the view state across sessions.
// Load returns (nil, nil) when no state has been saved yet.
type ViewStateRepository interface {
	Load(ctx context.Context) (*ViewStateRecord, error)
	Save(ctx context.Context, state *ViewStateRecord) error
}
