package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"commenttogame/internal/gamemerge"
	"commenttogame/internal/logging"
	"commenttogame/internal/metrics"
	"commenttogame/internal/persist"
	"commenttogame/pkg/database"
	"commenttogame/pkg/models"
	"commenttogame/pkg/utils"
)

func main() {
	in := flag.String("file", "data/bundles.json", "JSON array of catalog bundles ({\"igdb\": ..., \"rawg\": ...})")
	dryRun := flag.Bool("dry-run", false, "merge and print games without writing them")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	bundles, err := readBundles(*in)
	if err != nil {
		logging.Fatal().Err(err).Str("file", *in).Msg("read bundles")
	}
	games := mergeAll(bundles)
	logging.Info().Int("bundles", len(bundles)).Str("file", *in).Msg("bundles merged")

	if *dryRun {
		writeJSON(os.Stdout, games)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Import.Timeout)
	defer cancel()

	db, err := database.OpenAndMigrate(database.Config{Path: cfg.Database.Path})
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	report, err := persist.NewService(db, cfg.Import.Concurrency).UpsertMany(ctx, games)
	writeJSON(os.Stdout, report)
	if err != nil {
		logging.Error().Err(err).Msg("import interrupted")
		os.Exit(1)
	}
}

func readBundles(path string) ([]gamemerge.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeBundles(f)
}

func decodeBundles(r io.Reader) ([]gamemerge.Input, error) {
	var bundles []gamemerge.Input
	if err := json.NewDecoder(r).Decode(&bundles); err != nil {
		return nil, fmt.Errorf("decode bundles: %w", err)
	}
	for i, b := range bundles {
		if b.IGDB == nil && b.RAWG == nil {
			return nil, fmt.Errorf("bundle %d: igdb or rawg record required", i)
		}
	}
	return bundles, nil
}

func mergeAll(bundles []gamemerge.Input) []models.CanonicalGame {
	games := make([]models.CanonicalGame, len(bundles))
	for i, b := range bundles {
		start := time.Now()
		games[i] = gamemerge.Merge(b)
		metrics.ObserveMerge(start)
	}
	return games
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Error().Err(err).Msg("write output")
	}
}
