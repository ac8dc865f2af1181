// Package transform converts raw dream entries into the DreamGraph
// aggregate consumed by the simulation and view layers.
package transform

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/ports"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/aggregates"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/entities"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/services"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/taxonomy"
	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// dateLayouts are tried in order when parsing entry dates. Journal dates
// come from frontmatter and callout headers, so several common shapes
// must be accepted.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// fallbackEpoch anchors inferred dates when no entry in the dataset has
// a parseable date at all.
var fallbackEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

const snippetWordCount = 20

// Config controls the transform pipeline
type Config struct {
	SnippetWords int
	EdgeConfig   *services.EdgeDiscoveryConfig
}

// DefaultConfig returns the standard transform configuration
func DefaultConfig() Config {
	return Config{
		SnippetWords: snippetWordCount,
		EdgeConfig:   services.DefaultEdgeDiscoveryConfig(),
	}
}

// Result carries the built graph plus bookkeeping the caller surfaces
// to the user (skipped entries, inferred date count).
type Result struct {
	Graph         *aggregates.DreamGraph
	Skipped       []SkippedEntry
	InferredDates int
}

// SkippedEntry records an entry that could not become a node
type SkippedEntry struct {
	FilePath string
	Reason   string
}

// Transformer builds DreamGraph aggregates from raw entries
type Transformer struct {
	config   Config
	taxonomy taxonomy.Manager
	edges    *services.EdgeDiscoveryService
	logger   *zap.Logger
}

// NewTransformer creates a transformer with the given taxonomy manager
func NewTransformer(config Config, tax taxonomy.Manager, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SnippetWords <= 0 {
		config.SnippetWords = snippetWordCount
	}
	return &Transformer{
		config:   config,
		taxonomy: tax,
		edges:    services.NewEdgeDiscoveryService(config.EdgeConfig, logger),
		logger:   logger,
	}
}

// Build transforms raw entries into a fully linked DreamGraph. Entries
// with unparseable dates receive an inferred date at the midpoint of the
// dataset's parsed date range and are counted in Result.InferredDates.
func (t *Transformer) Build(ctx context.Context, entries []ports.RawEntry) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("transform")
	}

	parsed := make([]parsedEntry, 0, len(entries))
	skipped := make([]SkippedEntry, 0)
	var minDate, maxDate time.Time
	haveRange := false

	for _, entry := range entries {
		date, ok := parseDate(entry.Date)
		if ok {
			if !haveRange || date.Before(minDate) {
				minDate = date
			}
			if !haveRange || date.After(maxDate) {
				maxDate = date
			}
			haveRange = true
		}
		parsed = append(parsed, parsedEntry{raw: entry, date: date, dateOK: ok})
	}

	inferredAt := fallbackEpoch
	if haveRange {
		inferredAt = minDate.Add(maxDate.Sub(minDate) / 2)
	}

	graph := aggregates.NewDreamGraph()
	nodes := make([]*entities.DreamNode, 0, len(parsed))
	inferred := 0

	for _, p := range parsed {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError("transform")
		}

		id, err := valueobjects.NewNodeID(p.raw.FilePath, p.raw.BlockRef)
		if err != nil {
			skipped = append(skipped, SkippedEntry{FilePath: p.raw.FilePath, Reason: err.Error()})
			continue
		}

		var dreamDate valueobjects.DreamDate
		if p.dateOK {
			dreamDate, err = valueobjects.NewDreamDate(p.date)
		} else {
			dreamDate, err = valueobjects.NewInferredDreamDate(inferredAt)
			inferred++
		}
		if err != nil {
			skipped = append(skipped, SkippedEntry{FilePath: p.raw.FilePath, Reason: err.Error()})
			continue
		}

		title := strings.TrimSpace(p.raw.Title)
		if title == "" {
			title = displayTitle(p.raw.FilePath)
		}

		node, err := entities.NewDreamNode(id, title, snippet(p.raw.Content, t.config.SnippetWords), dreamDate, p.raw.Themes, p.raw.Characters)
		if err != nil {
			skipped = append(skipped, SkippedEntry{FilePath: p.raw.FilePath, Reason: err.Error()})
			continue
		}

		node.AssignCluster(taxonomy.PrimaryCluster(node.Themes(), t.taxonomy))
		nodes = append(nodes, node)
	}

	for _, node := range nodes {
		if err := graph.AddNode(node); err != nil {
			skipped = append(skipped, SkippedEntry{FilePath: node.ID().String(), Reason: err.Error()})
		}
	}

	edges, err := t.edges.DiscoverEdges(ctx, graph.GetNodes())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "edge discovery failed")
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge); err != nil {
			t.logger.Warn("dropping edge",
				zap.String("edge", edge.Key()),
				zap.Error(err))
		}
	}

	graph.MarkBuilt()

	t.logger.Info("graph built",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("skipped", len(skipped)),
		zap.Int("inferred_dates", inferred))

	return &Result{Graph: graph, Skipped: skipped, InferredDates: inferred}, nil
}

type parsedEntry struct {
	raw    ports.RawEntry
	date   time.Time
	dateOK bool
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// snippet returns the first n words of content with markdown syntax
// characters stripped, suffixed with an ellipsis when truncated
func snippet(content string, n int) string {
	cleaned := strings.NewReplacer("#", "", "*", "", "_", "", "`", "", ">", "", "[", "", "]", "").Replace(content)
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}

// displayTitle derives a title from the file path when the entry has none
func displayTitle(filePath string) string {
	base := filePath
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".md")
}
