// Command oneirograph is a headless harness for the Oneirograph
// pipeline: it builds the dream graph from an entries file, runs the
// layout to settle, and reports what the view would show.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/simulation"
	"github.com/banisterious/obsidian-oneirometrics-sub001/application/transform"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/aggregates"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/services"
	"github.com/banisterious/obsidian-oneirometrics-sub001/infrastructure/config"
	"github.com/banisterious/obsidian-oneirometrics-sub001/infrastructure/eventlog"
	"github.com/banisterious/obsidian-oneirometrics-sub001/infrastructure/persistence/jsonfile"
)

var (
	entriesPath  string
	taxonomyPath string
	cachePath    string
	tuningPath   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oneirograph",
		Short: "Dream graph layout harness",
		Long:  "Builds the Oneirograph dream graph from extracted journal entries and runs the force layout headlessly.",
	}
	root.PersistentFlags().StringVar(&entriesPath, "entries", "", "path to the entries JSON file (defaults to ONEIROGRAPH_ENTRIES)")
	root.PersistentFlags().StringVar(&taxonomyPath, "taxonomy", "", "path to the taxonomy YAML file (defaults to ONEIROGRAPH_TAXONOMY)")
	root.PersistentFlags().StringVar(&cachePath, "cache", "", "path to the layout cache file (defaults to ONEIROGRAPH_LAYOUT_CACHE)")
	root.PersistentFlags().StringVar(&tuningPath, "tuning", "", "path to a force tuning YAML file")
	root.AddCommand(newLayoutCmd(), newInspectCmd())
	return root
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Run the force layout to settle and cache the positions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			graph, result, err := buildGraph(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if graph == nil {
				color.Yellow("no entries found, nothing to lay out")
				return nil
			}

			cache := jsonfile.NewLayoutCache(cfg.LayoutCachePath)
			warm, err := cache.Load(cmd.Context())
			if err != nil {
				logger.Warn("layout cache unavailable", zap.Error(err))
				warm = nil
			}
			placement := services.NewPlacementService(placementConfig(cfg), logger)
			warmed := placement.Place(graph.GetNodes(), warm)

			tuning := simulation.DefaultForceConfig()
			if cfg.TuningPath != "" {
				watcher, err := config.NewTuningWatcher(cfg.TuningPath, logger)
				if err != nil {
					return err
				}
				tuning = watcher.Current()
				watcher.Stop()
			}
			engine, err := simulation.NewEngine(tuning, eventlog.NewPublisher(logger), logger)
			if err != nil {
				return err
			}

			final, err := engine.RunSync(cmd.Context(), graph)
			if err != nil {
				return err
			}

			if err := cache.Save(cmd.Context(), final.Positions); err != nil {
				return err
			}

			color.Green("layout settled after %d ticks (%s)", final.Tick, final.Reason)
			fmt.Printf("  nodes: %d  edges: %d  warm-started: %d\n", graph.NodeCount(), graph.EdgeCount(), warmed)
			if result.InferredDates > 0 {
				color.Yellow("  %d entries used an inferred date", result.InferredDates)
			}
			if len(result.Skipped) > 0 {
				color.Yellow("  %d entries skipped", len(result.Skipped))
			}
			fmt.Printf("  cache written to %s\n", cfg.LayoutCachePath)
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print graph statistics without running the layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			graph, result, err := buildGraph(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if graph == nil {
				color.Yellow("no entries found")
				return nil
			}

			bold := color.New(color.Bold)
			bold.Println("Oneirograph")
			fmt.Printf("  nodes:          %d\n", graph.NodeCount())
			fmt.Printf("  edges:          %d\n", graph.EdgeCount())
			fmt.Printf("  inferred dates: %d\n", result.InferredDates)
			fmt.Printf("  skipped:        %d\n", len(result.Skipped))

			if min, max, ok := graph.DateRange(); ok {
				fmt.Printf("  date range:     %s to %s\n", min.Format("2006-01-02"), max.Format("2006-01-02"))
			}

			clusters := graph.Clusters()
			ids := make([]string, 0, len(clusters))
			for id := range clusters {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			if len(ids) > 0 {
				bold.Println("Clusters")
				for _, id := range ids {
					fmt.Printf("  %-20s %d nodes\n", id, len(clusters[id]))
				}
			}
			return nil
		},
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if entriesPath != "" {
		cfg.EntriesPath = entriesPath
	}
	if taxonomyPath != "" {
		cfg.TaxonomyPath = taxonomyPath
	}
	if cachePath != "" {
		cfg.LayoutCachePath = cachePath
	}
	if tuningPath != "" {
		cfg.TuningPath = tuningPath
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// buildGraph runs the transform pipeline. Returns a nil graph for an
// empty dataset.
func buildGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*aggregates.DreamGraph, *transform.Result, error) {
	source := jsonfile.NewEntrySource(cfg.EntriesPath)
	entries, err := source.Entries(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, nil
	}

	tax, err := jsonfile.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, nil, err
	}

	transformer := transform.NewTransformer(transform.DefaultConfig(), tax, logger)
	result, err := transformer.Build(ctx, entries)
	if err != nil {
		return nil, nil, err
	}
	return result.Graph, result, nil
}

func placementConfig(cfg *config.Config) *services.PlacementConfig {
	pc := services.DefaultPlacementConfig()
	pc.Seed = cfg.PlacementSeed
	return pc
}
