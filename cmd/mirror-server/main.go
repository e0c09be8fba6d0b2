package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"commenttogame/internal/logging"
	"commenttogame/internal/mirror"
)

func main() {
	var (
		dataPath = flag.String("data", "data/rawg-mirror.json", "JSON array of mirrored RAWG games")
		addr     = flag.String("addr", ":9000", "listen address")
	)
	flag.Parse()

	entries, err := mirror.Load(*dataPath)
	if err != nil {
		logging.Fatal().Err(err).Str("data", *dataPath).Msg("load mirror data")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mirror.NewServer(entries).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logging.Info().Str("addr", *addr).Int("games", len(entries)).Msg("rawg mirror listening, base url /api")
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal().Err(err).Msg("mirror server stopped")
	}
}
