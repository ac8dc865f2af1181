// Package view drives the Oneirograph render surface: it owns the view
// state machine, translates pointer input into panel and hover changes,
// and turns simulation snapshots into render frames.
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/ports"
	"github.com/banisterious/obsidian-oneirometrics-sub001/application/simulation"
	"github.com/banisterious/obsidian-oneirometrics-sub001/application/spatial"
	"github.com/banisterious/obsidian-oneirometrics-sub001/application/transform"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/aggregates"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/entities"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/events"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/services"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/taxonomy"
	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// hit-testing uses a fixed on-screen radius, so the world-space radius
// shrinks as the user zooms in
const hitRadiusPixels = 8.0

const hullPadding = 24.0

const noMatchBanner = "No entries match the current filters."

// PanelState is the detail panel's state machine: collapsed, or
// expanded on exactly one node
type PanelState struct {
	Expanded bool
	NodeID   valueobjects.NodeID
}

// ControllerConfig wires the controller's behavioral switches
type ControllerConfig struct {
	// WorkerEnabled selects the background simulation goroutine. When
	// false every run executes synchronously with the reduced budget.
	WorkerEnabled bool
	HitRadius     float64
	HullPadding   float64
}

// DefaultControllerConfig returns the standard controller setup
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		WorkerEnabled: true,
		HitRadius:     hitRadiusPixels,
		HullPadding:   hullPadding,
	}
}

// Controller orchestrates one Oneirograph view from open to close
type Controller struct {
	config      ControllerConfig
	source      ports.EntrySource
	transformer *transform.Transformer
	placement   *services.PlacementService
	engine      *simulation.Engine
	layoutCache ports.LayoutCacheRepository
	viewState   ports.ViewStateRepository
	taxonomy    taxonomy.Manager
	renderer    Renderer
	publisher   simulation.EventPublisher
	logger      *zap.Logger

	mu       sync.Mutex
	graph    *aggregates.DreamGraph
	index    *spatial.Quadtree
	dimmed   map[string]bool
	filter   Filter
	panel    PanelState
	hovered  valueobjects.NodeID
	zoom     float64
	panX     float64
	panY     float64
	banners  []string
	noMatch  bool
	runID    uuid.UUID
	lastSeq  uint64
	settled  bool
	opened   bool
}

// NewController assembles a controller from its collaborators
func NewController(
	config ControllerConfig,
	source ports.EntrySource,
	transformer *transform.Transformer,
	placement *services.PlacementService,
	engine *simulation.Engine,
	layoutCache ports.LayoutCacheRepository,
	viewState ports.ViewStateRepository,
	tax taxonomy.Manager,
	renderer Renderer,
	publisher simulation.EventPublisher,
	logger *zap.Logger,
) (*Controller, error) {
	if source == nil || transformer == nil || placement == nil || engine == nil || renderer == nil {
		return nil, errors.NewValidationError("controller is missing a required collaborator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.HitRadius <= 0 {
		config.HitRadius = hitRadiusPixels
	}
	if config.HullPadding <= 0 {
		config.HullPadding = hullPadding
	}
	return &Controller{
		config:      config,
		source:      source,
		transformer: transformer,
		placement:   placement,
		engine:      engine,
		layoutCache: layoutCache,
		viewState:   viewState,
		taxonomy:    tax,
		renderer:    renderer,
		publisher:   publisher,
		logger:      logger,
		dimmed:      make(map[string]bool),
		zoom:        1,
	}, nil
}

// Open loads the dataset, builds the graph, and starts the simulation.
// An empty dataset renders a banner and leaves the simulation stopped;
// a failing entry source renders an advisory banner rather than failing
// the whole view.
func (c *Controller) Open(ctx context.Context) error {
	entries, err := c.source.Entries(ctx)
	if err != nil {
		c.logger.Warn("loading dream entries", zap.Error(err))
		c.mu.Lock()
		c.opened = true
		c.banners = []string{"Dream graph data is unavailable."}
		c.mu.Unlock()
		c.redrawStatic()
		c.redrawDynamic()
		return nil
	}

	c.restoreViewState(ctx)

	if len(entries) == 0 {
		c.mu.Lock()
		c.opened = true
		c.banners = []string{"No dream entries found. Add entries with themes to see the Oneirograph."}
		c.mu.Unlock()
		c.redrawStatic()
		c.redrawDynamic()
		return nil
	}

	result, err := c.transformer.Build(ctx, entries)
	if err != nil {
		return err
	}

	cache := c.loadLayoutCache(ctx)
	warmed := c.placement.Place(result.Graph.GetNodes(), cache)

	c.mu.Lock()
	c.graph = result.Graph
	c.opened = true
	c.settled = false
	c.banners = c.banners[:0]
	if result.InferredDates > 0 {
		c.banners = append(c.banners, fmt.Sprintf("%d entries had no parseable date; their positions use an inferred date.", result.InferredDates))
	}
	if len(result.Skipped) > 0 {
		c.banners = append(c.banners, fmt.Sprintf("%d entries could not be displayed.", len(result.Skipped)))
	}
	c.applyFilterLocked()
	c.mu.Unlock()

	c.logger.Info("view opened",
		zap.Int("nodes", result.Graph.NodeCount()),
		zap.Int("edges", result.Graph.EdgeCount()),
		zap.Int("warm_started", warmed))

	return c.startSimulation(ctx)
}

// Reload rebuilds the graph from the current dataset while keeping the
// positions of surviving nodes, then restarts the simulation
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return errors.NewValidationError("view is not open")
	}
	carry := c.currentPositionsLocked()
	c.mu.Unlock()

	entries, err := c.source.Entries(ctx)
	if err != nil {
		c.logger.Warn("loading dream entries", zap.Error(err))
		c.mu.Lock()
		c.banners = []string{"Dream graph data is unavailable."}
		c.mu.Unlock()
		c.redrawStatic()
		return nil
	}
	if len(entries) == 0 {
		c.engine.Cancel()
		c.mu.Lock()
		c.graph = nil
		c.index = nil
		c.banners = []string{"No dream entries found. Add entries with themes to see the Oneirograph."}
		c.collapsePanelLocked()
		c.mu.Unlock()
		c.redrawStatic()
		c.redrawDynamic()
		return nil
	}

	result, err := c.transformer.Build(ctx, entries)
	if err != nil {
		return err
	}
	c.placement.Place(result.Graph.GetNodes(), carry)

	c.mu.Lock()
	c.graph = result.Graph
	c.settled = false
	if c.panel.Expanded && !result.Graph.HasNode(c.panel.NodeID) {
		c.collapsePanelLocked()
	}
	c.applyFilterLocked()
	c.mu.Unlock()

	return c.startSimulation(ctx)
}

// Click handles a pointer click at screen coordinates. Clicking a node
// expands its panel, clicking the expanded node again collapses it, and
// clicking empty space collapses whatever is open.
func (c *Controller) Click(x, y float64) {
	c.mu.Lock()
	node, ok := c.hitTestLocked(x, y)

	switch {
	case !ok:
		changed := c.panel.Expanded
		c.collapsePanelLocked()
		c.mu.Unlock()
		if changed {
			c.redrawDynamic()
		}
	case c.panel.Expanded && c.panel.NodeID.Equals(node.ID()):
		c.collapsePanelLocked()
		c.mu.Unlock()
		c.redrawDynamic()
	default:
		c.panel = PanelState{Expanded: true, NodeID: node.ID()}
		content := c.panelContentLocked(node)
		c.mu.Unlock()
		c.renderer.ShowPanel(content)
		c.publish(events.NewPanelExpanded(node.ID(), time.Now()))
		c.redrawDynamic()
	}
}

// Hover updates the hovered node for the given screen coordinates
func (c *Controller) Hover(x, y float64) {
	c.mu.Lock()
	var next valueobjects.NodeID
	if node, ok := c.hitTestLocked(x, y); ok {
		next = node.ID()
	}
	changed := !next.Equals(c.hovered)
	c.hovered = next
	c.mu.Unlock()
	if changed {
		c.redrawDynamic()
	}
}

// ApplyFilter dims nodes outside the filter and refreshes both layers
func (c *Controller) ApplyFilter(filter Filter) {
	c.mu.Lock()
	c.filter = filter
	c.applyFilterLocked()
	if c.panel.Expanded && c.dimmed[c.panel.NodeID.String()] {
		c.collapsePanelLocked()
	}
	c.mu.Unlock()
	c.redrawStatic()
	c.redrawDynamic()
}

// ClearFilter restores full visibility
func (c *Controller) ClearFilter() {
	c.ApplyFilter(Filter{})
}

// SetViewport updates zoom and pan, redrawing the dynamic layer
func (c *Controller) SetViewport(zoom, panX, panY float64) {
	if zoom <= 0 {
		return
	}
	c.mu.Lock()
	c.zoom = zoom
	c.panX = panX
	c.panY = panY
	c.mu.Unlock()
	c.redrawDynamic()
}

// Panel returns the current panel state
func (c *Controller) Panel() PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

// Banners returns the advisory banners currently shown
func (c *Controller) Banners() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bannersLocked()
}

// Close stops the simulation and persists layout and view state
func (c *Controller) Close(ctx context.Context) error {
	c.engine.Cancel()

	c.mu.Lock()
	positions := c.currentPositionsLocked()
	record := &ports.ViewStateRecord{
		Zoom:         c.zoom,
		PanX:         c.panX,
		PanY:         c.panY,
		FilterThemes: c.filter.Themes,
		FilterChars:  c.filter.Characters,
		FilterFrom:   c.filter.From,
		FilterTo:     c.filter.To,
		SavedAt:      time.Now(),
	}
	c.opened = false
	c.mu.Unlock()

	var firstErr error
	if c.layoutCache != nil && len(positions) > 0 {
		if err := c.layoutCache.Save(ctx, positions); err != nil {
			firstErr = errors.Wrap(err, errors.ErrorTypeStorage, "saving layout cache")
		}
	}
	if c.viewState != nil {
		if err := c.viewState.Save(ctx, record); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, errors.ErrorTypeStorage, "saving view state")
		}
	}
	return firstErr
}

// startSimulation launches the worker run, or falls back to a
// synchronous run with the reduced tick budget
func (c *Controller) startSimulation(ctx context.Context) error {
	c.mu.Lock()
	graph := c.graph
	c.lastSeq = 0
	c.mu.Unlock()

	c.redrawStatic()
	c.redrawDynamic()

	if !c.config.WorkerEnabled {
		final, err := c.engine.RunSync(ctx, graph)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.runID = final.RunID
		c.banners = append(c.banners, "Layout computed without a background worker; quality may be reduced.")
		c.mu.Unlock()
		c.applySnapshot(final)
		c.redrawStatic()
		return nil
	}

	// frames hold at the gate until the run id is recorded, so the
	// stale-run check never races the engine's first emission
	ready := make(chan struct{})
	runID, err := c.engine.Start(ctx, graph, func(s simulation.Snapshot) {
		<-ready
		c.applySnapshot(s)
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.runID = runID
	c.lastSeq = 0
	c.mu.Unlock()
	close(ready)
	return nil
}

// applySnapshot integrates a simulation frame. Frames from superseded
// runs, out-of-order frames within a run, and the final frame of a
// cancelled run are all dropped: a cancelled run's layout belongs to a
// restart that has already replaced it.
func (c *Controller) applySnapshot(s simulation.Snapshot) {
	if s.Reason == simulation.SettleCancelled {
		return
	}
	c.mu.Lock()
	if c.graph == nil || (c.runID != uuid.Nil && s.RunID != c.runID) || s.Seq <= c.lastSeq {
		c.mu.Unlock()
		return
	}
	c.lastSeq = s.Seq

	for _, node := range c.graph.GetNodes() {
		if p, ok := s.Positions[node.ID().String()]; ok {
			node.MoveTo(p)
		}
	}
	c.rebuildIndexLocked()
	wasSettled := c.settled
	c.settled = s.Settled
	c.mu.Unlock()

	c.redrawDynamic()
	if s.Settled && !wasSettled {
		c.redrawStatic()
		c.persistLayout(s.Positions)
	}
}

func (c *Controller) persistLayout(positions map[string]valueobjects.Position) {
	if c.layoutCache == nil || len(positions) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.layoutCache.Save(ctx, positions); err != nil {
		c.logger.Warn("saving layout cache", zap.Error(err))
	}
}

func (c *Controller) loadLayoutCache(ctx context.Context) map[string]valueobjects.Position {
	if c.layoutCache == nil {
		return nil
	}
	cache, err := c.layoutCache.Load(ctx)
	if err != nil {
		c.logger.Warn("loading layout cache", zap.Error(err))
		return nil
	}
	return cache
}

func (c *Controller) restoreViewState(ctx context.Context) {
	if c.viewState == nil {
		return
	}
	record, err := c.viewState.Load(ctx)
	if err != nil {
		c.logger.Warn("loading view state", zap.Error(err))
		return
	}
	if record == nil {
		return
	}
	c.mu.Lock()
	if record.Zoom > 0 {
		c.zoom = record.Zoom
	}
	c.panX = record.PanX
	c.panY = record.PanY
	c.filter = Filter{
		Themes:     record.FilterThemes,
		Characters: record.FilterChars,
		From:       record.FilterFrom,
		To:         record.FilterTo,
	}
	c.mu.Unlock()
}

// hitTestLocked resolves screen coordinates to a visible node. Dimmed
// nodes do not take clicks.
func (c *Controller) hitTestLocked(x, y float64) (*entities.DreamNode, bool) {
	if c.index == nil || c.graph == nil {
		return nil, false
	}
	wx := (x - c.panX) / c.zoom
	wy := (y - c.panY) / c.zoom
	radius := c.config.HitRadius / c.zoom

	best := (*entities.DreamNode)(nil)
	bestDist := radius
	for _, p := range c.index.QueryCircle(wx, wy, radius) {
		if c.dimmed[p.ID.String()] {
			continue
		}
		node, err := c.graph.GetNode(p.ID)
		if err != nil {
			continue
		}
		d := p.Position.DistanceTo(mustPosition(wx, wy))
		if best == nil || d < bestDist {
			best = node
			bestDist = d
		}
	}
	return best, best != nil
}

func (c *Controller) collapsePanelLocked() {
	if !c.panel.Expanded {
		return
	}
	collapsed := c.panel.NodeID
	c.panel = PanelState{}
	c.renderer.HidePanel()
	c.publish(events.NewPanelCollapsed(collapsed, time.Now()))
}

func (c *Controller) panelContentLocked(node *entities.DreamNode) PanelContent {
	label := ""
	if c.taxonomy != nil && node.ClusterID() != "" {
		label = c.taxonomy.ClusterLabel(node.ClusterID())
	}
	return PanelContent{
		NodeID:       node.ID().String(),
		Title:        node.Title(),
		DateLabel:    node.Date().Time().Format("January 2, 2006"),
		DateInferred: node.Date().Inferred(),
		Snippet:      node.Snippet(),
		Themes:       node.Themes(),
		Characters:   node.Characters(),
		ClusterLabel: label,
	}
}

// applyFilterLocked recomputes the dimmed set. The no-match banner is
// state derived from the current filter, not an accumulated message, so
// it is reset here and re-raised only while the filter hides everything.
func (c *Controller) applyFilterLocked() {
	c.dimmed = make(map[string]bool)
	c.noMatch = false
	if c.graph == nil || c.filter.IsZero() {
		return
	}
	visible := 0
	for _, node := range c.graph.GetNodes() {
		if c.filter.Matches(node) {
			visible++
		} else {
			c.dimmed[node.ID().String()] = true
		}
	}
	c.noMatch = visible == 0
}

// bannersLocked combines the load-time banners with the filter-derived
// no-match banner
func (c *Controller) bannersLocked() []string {
	out := make([]string, len(c.banners))
	copy(out, c.banners)
	if c.noMatch {
		out = append(out, noMatchBanner)
	}
	return out
}

func (c *Controller) rebuildIndexLocked() {
	nodes := c.graph.GetNodes()
	points := make([]spatial.Point, 0, len(nodes))
	for _, node := range nodes {
		points = append(points, spatial.Point{ID: node.ID(), Position: node.Position()})
	}
	c.index = spatial.NewQuadtree(points)
}

func (c *Controller) redrawDynamic() {
	c.mu.Lock()
	frame := DynamicFrame{Zoom: c.zoom, PanX: c.panX, PanY: c.panY}
	if c.graph != nil {
		nodes := c.graph.GetNodes()
		frame.Nodes = make([]NodeSprite, 0, len(nodes))
		for _, node := range nodes {
			color := ""
			if c.taxonomy != nil && node.ClusterID() != "" {
				color = c.taxonomy.ClusterColor(node.ClusterID())
			}
			frame.Nodes = append(frame.Nodes, NodeSprite{
				ID:       node.ID().String(),
				Title:    node.Title(),
				X:        node.Position().X(),
				Y:        node.Position().Y(),
				Color:    color,
				Dimmed:   c.dimmed[node.ID().String()],
				Selected: c.panel.Expanded && c.panel.NodeID.Equals(node.ID()),
				Hovered:  c.hovered.Equals(node.ID()),
			})
		}
		edges := c.graph.GetEdges()
		frame.Edges = make([]EdgeSprite, 0, len(edges))
		for _, edge := range edges {
			src, errS := c.graph.GetNode(edge.SourceID())
			tgt, errT := c.graph.GetNode(edge.TargetID())
			if errS != nil || errT != nil {
				continue
			}
			frame.Edges = append(frame.Edges, EdgeSprite{
				X1:     src.Position().X(),
				Y1:     src.Position().Y(),
				X2:     tgt.Position().X(),
				Y2:     tgt.Position().Y(),
				Weight: edge.SharedThemeCount(),
				Dimmed: c.dimmed[src.ID().String()] || c.dimmed[tgt.ID().String()],
			})
		}
	}
	c.mu.Unlock()
	c.renderer.RenderDynamic(frame)
}

// redrawStatic recomputes cluster boundaries over visible members only,
// so a filter that hides an entire cluster removes its outline
func (c *Controller) redrawStatic() {
	c.mu.Lock()
	frame := StaticFrame{Banners: c.bannersLocked()}
	if c.graph != nil {
		members := make(map[string][]valueobjects.Position)
		for _, node := range c.graph.GetNodes() {
			cluster := node.ClusterID()
			if cluster == "" || c.dimmed[node.ID().String()] {
				continue
			}
			members[cluster] = append(members[cluster], node.Position())
		}
		frame.Boundaries = spatial.ComputeBoundaries(members, c.taxonomy, c.config.HullPadding)
	}
	c.mu.Unlock()
	c.renderer.RenderStatic(frame)
}

func (c *Controller) currentPositionsLocked() map[string]valueobjects.Position {
	if c.graph == nil {
		return nil
	}
	out := make(map[string]valueobjects.Position, c.graph.NodeCount())
	for _, node := range c.graph.GetNodes() {
		out[node.ID().String()] = node.Position()
	}
	return out
}

func (c *Controller) publish(event events.DomainEvent) {
	if c.publisher != nil {
		c.publisher.Publish(event)
	}
}

func mustPosition(x, y float64) valueobjects.Position {
	p, _ := valueobjects.NewPosition(x, y)
	return p
}
