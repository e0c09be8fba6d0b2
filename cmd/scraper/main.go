package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"

	"commenttogame/internal/logging"
	"commenttogame/internal/persist"
	"commenttogame/internal/scraper"
	"commenttogame/pkg/database"
	"commenttogame/pkg/utils"
)

type output struct {
	Report        persist.Report         `json:"report"`
	FetchFailures []scraper.FetchFailure `json:"fetch_failures"`
}

func main() {
	var (
		titlesFlag = flag.String("titles", "", "comma-separated game titles")
		file       = flag.String("file", "", "file with one title per line (# starts a comment)")
	)
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	titles := splitTitles(*titlesFlag)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logging.Fatal().Err(err).Str("file", *file).Msg("open titles file")
		}
		more, err := readTitles(f)
		f.Close()
		if err != nil {
			logging.Fatal().Err(err).Str("file", *file).Msg("read titles file")
		}
		titles = append(titles, more...)
	}
	if len(titles) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scraper -titles \"Hades,Celeste\" | -file titles.txt")
		os.Exit(2)
	}

	agg := scraper.FromConfig(cfg.IGDB, cfg.RAWG)
	if agg == nil {
		logging.Fatal().Msg("set CTG_IGDB_CLIENT_ID/CTG_IGDB_CLIENT_SECRET or CTG_RAWG_API_KEY")
	}

	// SIGINT stops between titles; already merged games are still written
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Import.Timeout)
	defer cancel()

	db, err := database.OpenAndMigrate(database.Config{Path: cfg.Database.Path})
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	games, failures, fetchErr := agg.FetchAndMerge(ctx, titles)
	logging.Info().Int("merged", len(games)).Int("fetch_failures", len(failures)).Msg("catalog fetch finished")

	// write what was fetched even after cancellation
	report, err := persist.NewService(db, cfg.Import.Concurrency).UpsertMany(context.WithoutCancel(ctx), games)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output{Report: report, FetchFailures: failures})

	if fetchErr != nil || err != nil {
		logging.Error().AnErr("fetch", fetchErr).AnErr("import", err).Msg("scrape interrupted")
		os.Exit(1)
	}
}

func splitTitles(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func readTitles(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
