// Command catalogmatch warms a catalog from one or more files and runs a
// single free-text query against it, printing ranked matches.
//
// Usage:
//
//	catalogmatch -catalog path/to/catalog.csv -query "wireless mouse logitech 19.99"
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nevindra/catalogmatch"
	"github.com/nevindra/catalogmatch/internal/config"
	"github.com/nevindra/catalogmatch/observability"
	"github.com/nevindra/catalogmatch/parser"
	"github.com/nevindra/catalogmatch/tfidx"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to catalogmatch.toml")
		catalogArg = flag.String("catalog", "", "comma-separated list of catalog source files")
		queryText  = flag.String("query", "", "free-form query text to resolve against the catalog")
		topK       = flag.Int("top-k", 0, "override the configured top-k (0 = use config)")
	)
	flag.Parse()

	cfg := config.Load(*configPath)

	sourcePaths := cfg.Registry.Sources
	if *catalogArg != "" {
		sourcePaths = strings.Split(*catalogArg, ",")
	}
	if len(sourcePaths) == 0 || *queryText == "" {
		log.Fatal("-query and either -catalog or [registry].sources are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tracer catalogmatch.Tracer
	var metrics catalogmatch.Metrics
	if cfg.Observability.Enabled {
		inst, shutdown, err := observability.Init(ctx, cfg.Observability.ServiceName)
		if err != nil {
			log.Fatalf("observability init: %v", err)
		}
		defer shutdown(ctx)
		tracer = observability.NewTracer()
		metrics = observability.NewMetrics(inst)
	}

	reg := catalogmatch.NewRegistry(
		parser.Auto{HTMLBaseURL: cfg.Registry.HTMLBaseURL},
		func() catalogmatch.Index { return tfidx.New() },
		catalogmatch.WithCapacity(cfg.Registry.Capacity),
		catalogmatch.WithRegistryTracer(tracer),
		catalogmatch.WithRegistryMetrics(metrics),
		catalogmatch.WithRegistryLogger(slog.Default()),
	)

	var sources []catalogmatch.Source
	for _, path := range sourcePaths {
		path = strings.TrimSpace(path)
		sources = append(sources, catalogmatch.Source{Name: filepath.Base(path), Path: path})
	}

	const catalogID = "default"
	count, err := reg.Warmup(ctx, catalogID, sources)
	if err != nil {
		log.Fatalf("warmup: %v", err)
	}
	slog.Info("catalog warmed", "items", count)

	k := *topK
	if k <= 0 {
		k = cfg.Tunables.TopK
	}
	result, err := reg.SearchText(ctx, catalogID, *queryText, k, cfg.Tunables.SimilarityThreshold)
	if err != nil {
		log.Fatalf("search: %v", err)
	}

	fmt.Printf("best match: %s (score %.4f)\n", result.BestMatchID, result.BestScore)
	for i, m := range result.TopK {
		fmt.Printf("  %d. %s (score %.4f)\n", i+1, m.ItemID, m.Score)
	}
}
