package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"commenttogame/internal/game"
	"commenttogame/internal/logging"
	"commenttogame/pkg/database"
	"commenttogame/pkg/models"
	"commenttogame/pkg/utils"
)

const exportPageSize = 100

var header = []string{
	"id", "name", "release_date", "metacritic", "internal_rating", "popularity",
	"developer", "publisher", "genres", "platforms", "stores", "main_image",
}

func main() {
	out := flag.String("out", "data/games.csv", "output CSV path")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.OpenAndMigrate(database.Config{Path: cfg.Database.Path})
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		logging.Fatal().Err(err).Msg("create output dir")
	}
	f, err := os.Create(*out)
	if err != nil {
		logging.Fatal().Err(err).Msg("create output file")
	}
	defer f.Close()

	n, err := exportGames(ctx, game.NewRepo(db), f)
	if err != nil {
		logging.Fatal().Err(err).Msg("export games")
	}
	logging.Info().Int("games", n).Str("out", *out).Msg("exported games")
}

// exportGames pages through the catalog by name and writes one CSV row per
// game. List columns are joined with "|".
func exportGames(ctx context.Context, repo *game.Repo, out io.Writer) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return 0, err
	}

	total := 0
	for offset := 0; ; offset += exportPageSize {
		views, err := repo.List(ctx, game.ListQuery{Sort: "name", Limit: exportPageSize, Offset: offset})
		if err != nil {
			return total, err
		}
		for _, v := range views {
			if err := w.Write(row(v)); err != nil {
				return total, err
			}
			total++
		}
		if len(views) < exportPageSize {
			break
		}
	}

	w.Flush()
	return total, w.Error()
}

func row(v models.GameView) []string {
	stores := make([]string, 0, len(v.StoreLinks))
	for _, l := range v.StoreLinks {
		stores = append(stores, l.Slug)
	}
	return []string{
		v.ID,
		v.Name,
		v.ReleaseDate,
		intString(v.Metacritic),
		intString(v.InternalRating),
		intString(v.Popularity),
		v.Developer,
		v.Publisher,
		strings.Join(v.Genres, "|"),
		strings.Join(v.Platforms, "|"),
		strings.Join(stores, "|"),
		v.MainImage,
	}
}

func intString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
