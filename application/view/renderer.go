package view

import "github.com/banisterious/obsidian-oneirometrics-sub001/application/spatial"

// NodeSprite is one node prepared for drawing
type NodeSprite struct {
	ID       string
	Title    string
	X, Y     float64
	Color    string
	Dimmed   bool
	Selected bool
	Hovered  bool
}

// EdgeSprite is one edge prepared for drawing. Weight is the shared
// theme count and drives line thickness.
type EdgeSprite struct {
	X1, Y1 float64
	X2, Y2 float64
	Weight int
	Dimmed bool
}

// StaticFrame carries the slow-changing layer: cluster boundaries and
// advisory banners. Redrawn on settle and on filter changes, not per
// simulation frame.
type StaticFrame struct {
	Boundaries []spatial.ClusterBoundary
	Banners    []string
}

// DynamicFrame carries the per-snapshot layer of nodes and edges
type DynamicFrame struct {
	Nodes []NodeSprite
	Edges []EdgeSprite
	Zoom  float64
	PanX  float64
	PanY  float64
}

// PanelContent is the detail panel for one expanded node
type PanelContent struct {
	NodeID       string
	Title        string
	DateLabel    string
	DateInferred bool
	Snippet      string
	Themes       []string
	Characters   []string
	ClusterLabel string
}

// Renderer is implemented by the host surface. The controller calls it
// from whatever goroutine delivered the triggering input or snapshot,
// so implementations must serialize their own drawing.
type Renderer interface {
	RenderStatic(frame StaticFrame)
	RenderDynamic(frame DynamicFrame)
	ShowPanel(content PanelContent)
	HidePanel()
}
