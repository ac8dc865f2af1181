package view

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/ports"
	"github.com/banisterious/obsidian-oneirometrics-sub001/application/simulation"
	"github.com/banisterious/obsidian-oneirometrics-sub001/application/transform"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/events"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/services"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/taxonomy"
)

type fakeSource struct {
	entries []ports.RawEntry
	err     error
}

func (s *fakeSource) Entries(context.Context) ([]ports.RawEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

type memoryLayoutCache struct {
	mu        sync.Mutex
	positions map[string]valueobjects.Position
	saves     int
}

func (c *memoryLayoutCache) Load(context.Context) (map[string]valueobjects.Position, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]valueobjects.Position, len(c.positions))
	for k, v := range c.positions {
		out[k] = v
	}
	return out, nil
}

func (c *memoryLayoutCache) Save(_ context.Context, positions map[string]valueobjects.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions = positions
	c.saves++
	return nil
}

type memoryViewState struct {
	mu     sync.Mutex
	record *ports.ViewStateRecord
}

func (s *memoryViewState) Load(context.Context) (*ports.ViewStateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, nil
}

func (s *memoryViewState) Save(_ context.Context, record *ports.ViewStateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	return nil
}

type fakeRenderer struct {
	mu           sync.Mutex
	static       []StaticFrame
	dynamic      []DynamicFrame
	panel        *PanelContent
	panelShows   int
	panelHides   int
}

func (r *fakeRenderer) RenderStatic(frame StaticFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static = append(r.static, frame)
}

func (r *fakeRenderer) RenderDynamic(frame DynamicFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dynamic = append(r.dynamic, frame)
}

func (r *fakeRenderer) ShowPanel(content PanelContent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := content
	r.panel = &c
	r.panelShows++
}

func (r *fakeRenderer) HidePanel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panel = nil
	r.panelHides++
}

func (r *fakeRenderer) lastStatic() StaticFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.static) == 0 {
		return StaticFrame{}
	}
	return r.static[len(r.static)-1]
}

func (r *fakeRenderer) lastDynamic() DynamicFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.dynamic) == 0 {
		return DynamicFrame{}
	}
	return r.dynamic[len(r.dynamic)-1]
}

func viewTaxonomy() taxonomy.Manager {
	return taxonomy.NewStaticManager(
		map[string]string{
			"water":  "elemental",
			"fire":   "elemental",
			"teeth":  "anxiety",
			"flying": "lucid",
		},
		map[string]taxonomy.ClusterInfo{
			"elemental": {Label: "Elemental", Color: "#3b82f6"},
			"anxiety":   {Label: "Anxiety", Color: "#ef4444"},
			"lucid":     {Label: "Lucid", Color: "#22c55e"},
		},
	)
}

func testEntries() []ports.RawEntry {
	return []ports.RawEntry{
		{FilePath: "a.md", Date: "2025-01-05", Title: "Flood", Content: "water rising", Themes: []string{"water"}},
		{FilePath: "b.md", Date: "2025-01-12", Title: "Embers", Content: "fire everywhere", Themes: []string{"fire", "water"}},
		{FilePath: "c.md", Date: "2025-01-20", Title: "Teeth", Content: "the usual", Themes: []string{"teeth"}},
		{FilePath: "d.md", Date: "2025-02-02", Title: "Soaring", Content: "above the clouds", Themes: []string{"flying"}},
	}
}

func newTestController(t *testing.T, entries []ports.RawEntry) (*Controller, *fakeRenderer, *memoryLayoutCache) {
	t.Helper()

	tax := viewTaxonomy()
	logger := zap.NewNop()

	simConfig := simulation.DefaultForceConfig()
	simConfig.MaxTicks = 60
	simConfig.SyncTickBudget = 40
	simConfig.SnapshotMinInterval = 0
	engine, err := simulation.NewEngine(simConfig, nil, logger)
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	cache := &memoryLayoutCache{}
	config := DefaultControllerConfig()
	config.WorkerEnabled = false

	controller, err := NewController(
		config,
		&fakeSource{entries: entries},
		transform.NewTransformer(transform.DefaultConfig(), tax, logger),
		services.NewPlacementService(nil, logger),
		engine,
		cache,
		&memoryViewState{},
		tax,
		renderer,
		nil,
		logger,
	)
	require.NoError(t, err)
	return controller, renderer, cache
}

func spriteByID(frame DynamicFrame, id string) (NodeSprite, bool) {
	for _, s := range frame.Nodes {
		if s.ID == id {
			return s, true
		}
	}
	return NodeSprite{}, false
}

type spyPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *spyPublisher) Publish(event events.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.GetEventType())
}

func (p *spyPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// an empty dataset shows the empty-state banner and never starts a
// simulation run, even with the background worker enabled
func TestOpen_EmptyDataset(t *testing.T) {
	tax := viewTaxonomy()
	logger := zap.NewNop()
	spy := &spyPublisher{}

	engine, err := simulation.NewEngine(simulation.DefaultForceConfig(), spy, logger)
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	config := DefaultControllerConfig()
	config.WorkerEnabled = true

	controller, err := NewController(
		config,
		&fakeSource{},
		transform.NewTransformer(transform.DefaultConfig(), tax, logger),
		services.NewPlacementService(nil, logger),
		engine,
		&memoryLayoutCache{},
		&memoryViewState{},
		tax,
		renderer,
		nil,
		logger,
	)
	require.NoError(t, err)

	require.NoError(t, controller.Open(context.Background()))

	banners := controller.Banners()
	require.Len(t, banners, 1)
	assert.Contains(t, banners[0], "No dream entries")

	assert.Empty(t, renderer.lastDynamic().Nodes)
	assert.Equal(t, banners, renderer.lastStatic().Banners)
	assert.NotContains(t, spy.types(), "simulation.started")
}

func TestOpen_SourceUnavailable(t *testing.T) {
	tax := viewTaxonomy()
	logger := zap.NewNop()

	engine, err := simulation.NewEngine(simulation.DefaultForceConfig(), nil, logger)
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	config := DefaultControllerConfig()
	config.WorkerEnabled = false

	controller, err := NewController(
		config,
		&fakeSource{err: stderrors.New("vault locked")},
		transform.NewTransformer(transform.DefaultConfig(), tax, logger),
		services.NewPlacementService(nil, logger),
		engine,
		&memoryLayoutCache{},
		&memoryViewState{},
		tax,
		renderer,
		nil,
		logger,
	)
	require.NoError(t, err)

	// a failing entry source degrades to an advisory banner, not an error
	require.NoError(t, controller.Open(context.Background()))

	banners := controller.Banners()
	require.Len(t, banners, 1)
	assert.Contains(t, banners[0], "unavailable")
	assert.Empty(t, renderer.lastDynamic().Nodes)
}

func TestOpen_BuildsAndSettles(t *testing.T) {
	controller, renderer, cache := newTestController(t, testEntries())

	require.NoError(t, controller.Open(context.Background()))

	frame := renderer.lastDynamic()
	assert.Len(t, frame.Nodes, 4)
	assert.Len(t, frame.Edges, 1)

	// settled layout was cached for warm start
	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.NotEmpty(t, cache.positions)

	// cluster boundaries drawn for every populated cluster
	boundaries := renderer.lastStatic().Boundaries
	ids := make([]string, 0, len(boundaries))
	for _, b := range boundaries {
		ids = append(ids, b.ClusterID)
	}
	assert.ElementsMatch(t, []string{"elemental", "anxiety", "lucid"}, ids)
}

func TestClick_PanelLifecycle(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	sprite, ok := spriteByID(renderer.lastDynamic(), "a.md")
	require.True(t, ok)

	// click expands
	controller.Click(sprite.X, sprite.Y)
	panel := controller.Panel()
	require.True(t, panel.Expanded)
	assert.Equal(t, "a.md", panel.NodeID.String())
	require.NotNil(t, renderer.panel)
	assert.Equal(t, "Flood", renderer.panel.Title)
	assert.Contains(t, renderer.panel.Snippet, "water rising")
	assert.Equal(t, "Elemental", renderer.panel.ClusterLabel)

	// clicking the same node again collapses
	controller.Click(sprite.X, sprite.Y)
	assert.False(t, controller.Panel().Expanded)
	assert.Nil(t, renderer.panel)

	// expanding one node then another switches without an empty state
	other, ok := spriteByID(renderer.lastDynamic(), "c.md")
	require.True(t, ok)
	controller.Click(sprite.X, sprite.Y)
	controller.Click(other.X, other.Y)
	panel = controller.Panel()
	require.True(t, panel.Expanded)
	assert.Equal(t, "c.md", panel.NodeID.String())

	// background click collapses
	controller.Click(-10000, -10000)
	assert.False(t, controller.Panel().Expanded)
}

// at most one panel is ever expanded, whatever the click sequence
func TestClick_SinglePanelInvariant(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	frame := renderer.lastDynamic()
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 200; i++ {
		if rng.Intn(4) == 0 {
			controller.Click(rng.Float64()*4000-2000, rng.Float64()*4000-2000)
		} else {
			sprite := frame.Nodes[rng.Intn(len(frame.Nodes))]
			controller.Click(sprite.X, sprite.Y)
		}

		panel := controller.Panel()
		if panel.Expanded {
			assert.False(t, panel.NodeID.IsZero())
			require.NotNil(t, renderer.panel)
			assert.Equal(t, panel.NodeID.String(), renderer.panel.NodeID)
		} else {
			assert.Nil(t, renderer.panel)
		}
	}
}

func TestHover_Highlights(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	sprite, ok := spriteByID(renderer.lastDynamic(), "b.md")
	require.True(t, ok)

	controller.Hover(sprite.X, sprite.Y)
	hovered, ok := spriteByID(renderer.lastDynamic(), "b.md")
	require.True(t, ok)
	assert.True(t, hovered.Hovered)

	controller.Hover(-10000, -10000)
	cleared, ok := spriteByID(renderer.lastDynamic(), "b.md")
	require.True(t, ok)
	assert.False(t, cleared.Hovered)
}

func TestApplyFilter_DimsWithoutRemoving(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	controller.ApplyFilter(Filter{Themes: []string{"water"}})

	frame := renderer.lastDynamic()
	// nodes stay in the scene, non-matching ones dimmed
	require.Len(t, frame.Nodes, 4)
	for _, sprite := range frame.Nodes {
		switch sprite.ID {
		case "a.md", "b.md":
			assert.False(t, sprite.Dimmed, sprite.ID)
		default:
			assert.True(t, sprite.Dimmed, sprite.ID)
		}
	}
}

// a filter that hides a cluster's last visible member removes its outline
func TestApplyFilter_RemovesEmptyClusterBoundary(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	controller.ApplyFilter(Filter{Themes: []string{"teeth"}})

	boundaries := renderer.lastStatic().Boundaries
	require.Len(t, boundaries, 1)
	assert.Equal(t, "anxiety", boundaries[0].ClusterID)

	controller.ClearFilter()
	assert.Len(t, renderer.lastStatic().Boundaries, 3)
}

// the no-match banner reflects the current filter and never stacks up
// across repeated filter changes
func TestApplyFilter_NoMatchBannerIsStateful(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	countNoMatch := func() int {
		n := 0
		for _, b := range controller.Banners() {
			if b == noMatchBanner {
				n++
			}
		}
		return n
	}

	controller.ApplyFilter(Filter{Themes: []string{"falling"}})
	assert.Equal(t, 1, countNoMatch())

	controller.ApplyFilter(Filter{Themes: []string{"drowning"}})
	assert.Equal(t, 1, countNoMatch())
	assert.Contains(t, renderer.lastStatic().Banners, noMatchBanner)

	// a matching filter clears it
	controller.ApplyFilter(Filter{Themes: []string{"water"}})
	assert.Equal(t, 0, countNoMatch())

	controller.ApplyFilter(Filter{Themes: []string{"falling"}})
	controller.ClearFilter()
	assert.Equal(t, 0, countNoMatch())
	assert.NotContains(t, renderer.lastStatic().Banners, noMatchBanner)
}

func TestApplyFilter_CollapsesDimmedPanel(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	sprite, ok := spriteByID(renderer.lastDynamic(), "c.md")
	require.True(t, ok)
	controller.Click(sprite.X, sprite.Y)
	require.True(t, controller.Panel().Expanded)

	controller.ApplyFilter(Filter{Themes: []string{"water"}})
	assert.False(t, controller.Panel().Expanded)
}

func TestApplyFilter_DimmedNodesNotClickable(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	controller.ApplyFilter(Filter{Themes: []string{"water"}})

	sprite, ok := spriteByID(renderer.lastDynamic(), "c.md")
	require.True(t, ok)
	controller.Click(sprite.X, sprite.Y)
	assert.False(t, controller.Panel().Expanded)
}

func TestApplySnapshot_DropsStaleFrames(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	controller.mu.Lock()
	runID := controller.runID
	lastSeq := controller.lastSeq
	controller.mu.Unlock()

	before := renderer.lastDynamic()
	sprite, ok := spriteByID(before, "a.md")
	require.True(t, ok)

	moved, err := valueobjects.NewPosition(sprite.X+500, sprite.Y+500)
	require.NoError(t, err)

	// frame from a superseded run is ignored
	controller.applySnapshot(simulation.Snapshot{
		RunID:     uuid.New(),
		Seq:       lastSeq + 1,
		Positions: map[string]valueobjects.Position{"a.md": moved},
	})
	after, _ := spriteByID(renderer.lastDynamic(), "a.md")
	assert.Equal(t, sprite.X, after.X)

	// out-of-order frame within the current run is ignored
	controller.applySnapshot(simulation.Snapshot{
		RunID:     runID,
		Seq:       lastSeq,
		Positions: map[string]valueobjects.Position{"a.md": moved},
	})
	after, _ = spriteByID(renderer.lastDynamic(), "a.md")
	assert.Equal(t, sprite.X, after.X)

	// fresh frame applies
	controller.applySnapshot(simulation.Snapshot{
		RunID:     runID,
		Seq:       lastSeq + 1,
		Positions: map[string]valueobjects.Position{"a.md": moved},
	})
	after, _ = spriteByID(renderer.lastDynamic(), "a.md")
	assert.Equal(t, sprite.X+500, after.X)
}

// a cancelled run's final frame carries a superseded layout and must
// not move sprites, advance the sequence, or persist to the cache
func TestApplySnapshot_DropsCancelledFinal(t *testing.T) {
	controller, renderer, cache := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	controller.mu.Lock()
	runID := controller.runID
	lastSeq := controller.lastSeq
	controller.mu.Unlock()

	cache.mu.Lock()
	savesBefore := cache.saves
	cache.mu.Unlock()

	sprite, ok := spriteByID(renderer.lastDynamic(), "a.md")
	require.True(t, ok)
	moved, err := valueobjects.NewPosition(sprite.X+500, sprite.Y+500)
	require.NoError(t, err)

	controller.applySnapshot(simulation.Snapshot{
		RunID:     runID,
		Seq:       lastSeq + 1,
		Positions: map[string]valueobjects.Position{"a.md": moved},
		Reason:    simulation.SettleCancelled,
	})

	after, _ := spriteByID(renderer.lastDynamic(), "a.md")
	assert.Equal(t, sprite.X, after.X)

	controller.mu.Lock()
	assert.Equal(t, lastSeq, controller.lastSeq)
	controller.mu.Unlock()

	cache.mu.Lock()
	assert.Equal(t, savesBefore, cache.saves)
	cache.mu.Unlock()
}

func TestClose_PersistsState(t *testing.T) {
	controller, _, cache := newTestController(t, testEntries())
	require.NoError(t, controller.Open(context.Background()))

	controller.SetViewport(1.5, 40, -20)
	controller.ApplyFilter(Filter{Themes: []string{"water"}})

	state := &memoryViewState{}
	controller.viewState = state
	require.NoError(t, controller.Close(context.Background()))

	state.mu.Lock()
	record := state.record
	state.mu.Unlock()
	require.NotNil(t, record)
	assert.Equal(t, 1.5, record.Zoom)
	assert.Equal(t, 40.0, record.PanX)
	assert.Equal(t, []string{"water"}, record.FilterThemes)
	assert.WithinDuration(t, time.Now(), record.SavedAt, 5*time.Second)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.GreaterOrEqual(t, cache.saves, 1)
}

func TestOpen_RestoresViewState(t *testing.T) {
	controller, renderer, _ := newTestController(t, testEntries())
	controller.viewState = &memoryViewState{record: &ports.ViewStateRecord{
		Zoom: 2, PanX: 10, PanY: 20,
	}}

	require.NoError(t, controller.Open(context.Background()))

	frame := renderer.lastDynamic()
	assert.Equal(t, 2.0, frame.Zoom)
	assert.Equal(t, 10.0, frame.PanX)
	assert.Equal(t, 20.0, frame.PanY)
}

func TestFilter_Matches(t *testing.T) {
	jan10 := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filter  Filter
		isZero  bool
	}{
		{name: "empty filter", filter: Filter{}, isZero: true},
		{name: "theme filter", filter: Filter{Themes: []string{"water"}}},
		{name: "date filter", filter: Filter{From: &jan10, To: &feb1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isZero, tt.filter.IsZero())
		})
	}
}
