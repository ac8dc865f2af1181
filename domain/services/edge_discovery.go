package services

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/entities"
)

// EdgeDiscoveryConfig configures shared-theme edge discovery
type EdgeDiscoveryConfig struct {
	// BucketThreshold is the node count above which discovery switches
	// from full pairwise comparison to the theme inverted index, turning
	// O(n²) into O(Σ bucket_size²) over co-occurring nodes only.
	BucketThreshold int

	// MaxEdgesPerNode caps edges per node, strongest first. 0 = unlimited.
	MaxEdgesPerNode int

	// Workers bounds the goroutines used for the bucketed scan
	Workers int
}

// DefaultEdgeDiscoveryConfig returns default configuration
func DefaultEdgeDiscoveryConfig() *EdgeDiscoveryConfig {
	return &EdgeDiscoveryConfig{
		BucketThreshold: 2000,
		MaxEdgesPerNode: 0,
		Workers:         4,
	}
}

// EdgeDiscoveryService links nodes that share at least one theme.
// Theme matching is case-insensitive and trimmed; nodes are normalized
// at construction so discovery compares canonical strings directly.
type EdgeDiscoveryService struct {
	config *EdgeDiscoveryConfig
	logger *zap.Logger
}

// NewEdgeDiscoveryService creates a new edge discovery service
func NewEdgeDiscoveryService(config *EdgeDiscoveryConfig, logger *zap.Logger) *EdgeDiscoveryService {
	if config == nil {
		config = DefaultEdgeDiscoveryConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EdgeDiscoveryService{config: config, logger: logger}
}

// DiscoverEdges finds every unordered node pair sharing at least one theme
// and returns one edge per pair, weight = shared theme count. The result
// is sorted by canonical pair key so repeated runs are deterministic.
func (s *EdgeDiscoveryService) DiscoverEdges(ctx context.Context, nodes []*entities.DreamNode) ([]*entities.Edge, error) {
	if len(nodes) < 2 {
		return []*entities.Edge{}, nil
	}

	var pairs [][2]int
	var err error
	if len(nodes) <= s.config.BucketThreshold {
		pairs, err = s.pairwiseCandidates(ctx, nodes)
	} else {
		pairs, err = s.bucketedCandidates(ctx, nodes)
	}
	if err != nil {
		return nil, err
	}

	edges := make([]*entities.Edge, 0, len(pairs))
	for _, pair := range pairs {
		a, b := nodes[pair[0]], nodes[pair[1]]
		shared := a.SharedThemes(b)
		if len(shared) == 0 {
			continue
		}
		edge, err := entities.NewEdge(a.ID(), b.ID(), shared)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Key() < edges[j].Key()
	})

	if s.config.MaxEdgesPerNode > 0 {
		edges = s.capPerNode(edges)
	}

	s.logger.Debug("edge discovery complete",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return edges, nil
}

// pairwiseCandidates emits every index pair; shared-theme filtering
// happens when the edges are materialized
func (s *EdgeDiscoveryService) pairwiseCandidates(ctx context.Context, nodes []*entities.DreamNode) ([][2]int, error) {
	pairs := make([][2]int, 0)
	for i := 0; i < len(nodes); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(nodes); j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs, nil
}

// bucketedCandidates builds the theme inverted index and only pairs nodes
// that co-occur in at least one theme bucket. Buckets are scanned in
// parallel; each worker collects a local pair set which is merged after.
func (s *EdgeDiscoveryService) bucketedCandidates(ctx context.Context, nodes []*entities.DreamNode) ([][2]int, error) {
	index := make(map[string][]int)
	for i, node := range nodes {
		for _, theme := range node.Themes() {
			index[theme] = append(index[theme], i)
		}
	}

	themes := make([]string, 0, len(index))
	for theme := range index {
		themes = append(themes, theme)
	}
	sort.Strings(themes)

	workers := s.config.Workers
	if workers > len(themes) {
		workers = len(themes)
	}
	if workers < 1 {
		workers = 1
	}

	locals := make([]map[[2]int]struct{}, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		locals[w] = make(map[[2]int]struct{})
		g.Go(func() error {
			for t := w; t < len(themes); t += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				bucket := index[themes[t]]
				for i := 0; i < len(bucket); i++ {
					for j := i + 1; j < len(bucket); j++ {
						a, b := bucket[i], bucket[j]
						if b < a {
							a, b = b, a
						}
						locals[w][[2]int{a, b}] = struct{}{}
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[[2]int]struct{})
	for _, local := range locals {
		for pair := range local {
			merged[pair] = struct{}{}
		}
	}

	pairs := make([][2]int, 0, len(merged))
	for pair := range merged {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs, nil
}

// capPerNode keeps the strongest edges for each node, dropping any edge
// that would push either endpoint past the limit. Edges are considered
// strongest-first, ties broken by canonical key for determinism.
func (s *EdgeDiscoveryService) capPerNode(edges []*entities.Edge) []*entities.Edge {
	ranked := make([]*entities.Edge, len(edges))
	copy(ranked, edges)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SharedThemeCount() != ranked[j].SharedThemeCount() {
			return ranked[i].SharedThemeCount() > ranked[j].SharedThemeCount()
		}
		return ranked[i].Key() < ranked[j].Key()
	})

	perNode := make(map[string]int)
	kept := make([]*entities.Edge, 0, len(ranked))
	for _, edge := range ranked {
		src := edge.SourceID().String()
		dst := edge.TargetID().String()
		if perNode[src] >= s.config.MaxEdgesPerNode || perNode[dst] >= s.config.MaxEdgesPerNode {
			continue
		}
		perNode[src]++
		perNode[dst]++
		kept = append(kept, edge)
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Key() < kept[j].Key()
	})
	return kept
}
