package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/entities"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
)

func discoveryNode(t *testing.T, path string, themes ...string) *entities.DreamNode {
	t.Helper()
	id, err := valueobjects.NewNodeID(path, "")
	require.NoError(t, err)
	date, err := valueobjects.NewDreamDate(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	node, err := entities.NewDreamNode(id, "Dream "+path, "snippet", date, themes, nil)
	require.NoError(t, err)
	return node
}

func TestDiscoverEdges(t *testing.T) {
	svc := NewEdgeDiscoveryService(nil, zap.NewNop())

	nodes := []*entities.DreamNode{
		discoveryNode(t, "a.md", "water", "flying"),
		discoveryNode(t, "b.md", "water", "teeth"),
		discoveryNode(t, "c.md", "teeth"),
		discoveryNode(t, "d.md", "fire"),
	}

	edges, err := svc.DiscoverEdges(context.Background(), nodes)
	require.NoError(t, err)

	keys := make([]string, 0, len(edges))
	for _, e := range edges {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []string{"a.md->b.md", "b.md->c.md"}, keys)
	assert.Equal(t, 1, edges[0].SharedThemeCount())
}

func TestDiscoverEdges_CaseInsensitive(t *testing.T) {
	svc := NewEdgeDiscoveryService(nil, zap.NewNop())

	nodes := []*entities.DreamNode{
		discoveryNode(t, "a.md", "Water"),
		discoveryNode(t, "b.md", "WATER"),
	}

	edges, err := svc.DiscoverEdges(context.Background(), nodes)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, []string{"water"}, edges[0].SharedThemes())
}

func TestDiscoverEdges_SmallInputs(t *testing.T) {
	svc := NewEdgeDiscoveryService(nil, zap.NewNop())

	edges, err := svc.DiscoverEdges(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, edges)

	edges, err = svc.DiscoverEdges(context.Background(), []*entities.DreamNode{
		discoveryNode(t, "a.md", "water"),
	})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

// the bucketed path must find exactly the same pairs as pairwise
func TestDiscoverEdges_BucketedMatchesPairwise(t *testing.T) {
	themes := []string{"water", "teeth", "flying", "falling", "fire", "exam"}
	nodes := make([]*entities.DreamNode, 0, 40)
	for i := 0; i < 40; i++ {
		nodes = append(nodes, discoveryNode(t,
			fmt.Sprintf("n%02d.md", i),
			themes[i%len(themes)],
			themes[(i*7+3)%len(themes)],
		))
	}

	pairwise := NewEdgeDiscoveryService(&EdgeDiscoveryConfig{BucketThreshold: 1000, Workers: 4}, zap.NewNop())
	bucketed := NewEdgeDiscoveryService(&EdgeDiscoveryConfig{BucketThreshold: 1, Workers: 4}, zap.NewNop())

	edgesA, err := pairwise.DiscoverEdges(context.Background(), nodes)
	require.NoError(t, err)
	edgesB, err := bucketed.DiscoverEdges(context.Background(), nodes)
	require.NoError(t, err)

	require.Equal(t, len(edgesA), len(edgesB))
	for i := range edgesA {
		assert.Equal(t, edgesA[i].Key(), edgesB[i].Key())
		assert.Equal(t, edgesA[i].SharedThemeCount(), edgesB[i].SharedThemeCount())
	}
}

func TestDiscoverEdges_MaxEdgesPerNode(t *testing.T) {
	svc := NewEdgeDiscoveryService(&EdgeDiscoveryConfig{
		BucketThreshold: 1000,
		MaxEdgesPerNode: 1,
		Workers:         1,
	}, zap.NewNop())

	// hub shares themes with three spokes
	nodes := []*entities.DreamNode{
		discoveryNode(t, "hub.md", "water", "teeth", "fire"),
		discoveryNode(t, "s1.md", "water"),
		discoveryNode(t, "s2.md", "teeth"),
		discoveryNode(t, "s3.md", "fire"),
	}

	edges, err := svc.DiscoverEdges(context.Background(), nodes)
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, e := range edges {
		counts[e.SourceID().String()]++
		counts[e.TargetID().String()]++
	}
	for id, n := range counts {
		assert.LessOrEqual(t, n, 1, "node %s exceeds cap", id)
	}
}

func TestDiscoverEdges_Cancelled(t *testing.T) {
	svc := NewEdgeDiscoveryService(nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DiscoverEdges(ctx, []*entities.DreamNode{
		discoveryNode(t, "a.md", "water"),
		discoveryNode(t, "b.md", "water"),
	})
	assert.Error(t, err)
}

func BenchmarkDiscoverEdges(b *testing.B) {
	themes := []string{"water", "teeth", "flying", "falling", "fire"}
	nodes := make([]*entities.DreamNode, 0, 200)
	for i := 0; i < 200; i++ {
		id, _ := valueobjects.NewNodeID(fmt.Sprintf("n%03d.md", i), "")
		date, _ := valueobjects.NewDreamDate(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
		node, _ := entities.NewDreamNode(id, "Dream", "snippet", date, []string{themes[i%len(themes)]}, nil)
		nodes = append(nodes, node)
	}
	svc := NewEdgeDiscoveryService(nil, zap.NewNop())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.DiscoverEdges(context.Background(), nodes)
	}
}
