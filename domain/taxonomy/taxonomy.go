// Package taxonomy defines the read-only contract to the external
// Taxonomy Manager that owns the Cluster/Vector/Theme classification.
// The graph subsystem only ever reads cluster assignments and
// presentation attributes; it never mutates taxonomy data.
package taxonomy

import (
	"sort"
	"sync"
)

// Manager resolves theme identifiers to their owning cluster and
// provides cluster presentation attributes.
type Manager interface {
	// ClusterForTheme resolves a theme to its cluster id.
	// ok is false for themes the taxonomy does not know.
	ClusterForTheme(themeID string) (clusterID string, ok bool)

	// ClusterLabel returns the display label for a cluster
	ClusterLabel(clusterID string) string

	// ClusterColor returns the display color for a cluster
	ClusterColor(clusterID string) string
}

// ClusterInfo carries the presentation attributes of one cluster
type ClusterInfo struct {
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// StaticManager is an in-memory Manager backed by fixed maps,
// used by the harness and tests.
type StaticManager struct {
	mu          sync.RWMutex
	assignments map[string]string
	clusters    map[string]ClusterInfo
}

// NewStaticManager creates a manager from explicit theme-to-cluster
// assignments and cluster metadata
func NewStaticManager(assignments map[string]string, clusters map[string]ClusterInfo) *StaticManager {
	a := make(map[string]string, len(assignments))
	for theme, cluster := range assignments {
		a[theme] = cluster
	}
	c := make(map[string]ClusterInfo, len(clusters))
	for id, info := range clusters {
		c[id] = info
	}
	return &StaticManager{assignments: a, clusters: c}
}

// ClusterForTheme implements Manager
func (m *StaticManager) ClusterForTheme(themeID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cluster, ok := m.assignments[themeID]
	return cluster, ok
}

// ClusterLabel implements Manager
func (m *StaticManager) ClusterLabel(clusterID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if info, ok := m.clusters[clusterID]; ok && info.Label != "" {
		return info.Label
	}
	return clusterID
}

// ClusterColor implements Manager
func (m *StaticManager) ClusterColor(clusterID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clusters[clusterID].Color
}

// PrimaryCluster picks one cluster for a node from its theme list: the
// cluster covering the most themes wins, ties broken by the smallest
// cluster id so assignment is deterministic. Returns empty when no
// theme resolves to a cluster.
func PrimaryCluster(themes []string, m Manager) string {
	if m == nil {
		return ""
	}
	counts := make(map[string]int)
	for _, theme := range themes {
		if cluster, ok := m.ClusterForTheme(theme); ok && cluster != "" {
			counts[cluster]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	clusters := make([]string, 0, len(counts))
	for cluster := range counts {
		clusters = append(clusters, cluster)
	}
	sort.Strings(clusters)

	best := clusters[0]
	for _, cluster := range clusters[1:] {
		if counts[cluster] > counts[best] {
			best = cluster
		}
	}
	return best
}
