package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"trackarr/internal/api"
	"trackarr/internal/catalog"
	"trackarr/internal/config"
	"trackarr/internal/db"
	"trackarr/internal/discovery"
	"trackarr/internal/ingest"
	"trackarr/internal/logging"
	"trackarr/internal/metadata"
	"trackarr/internal/repository"
	"trackarr/internal/version"
)

func main() {
	ver := version.Load()
	log.Printf("trackarr %s starting...", ver.Version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseFile)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	store := repository.NewStore(database.DB)
	catalogClient := catalog.NewClient(cfg.TMDBAPIKey)
	if !catalogClient.Configured() {
		logger.Warn("TMDB_API_KEY not set, discovery and search are disabled")
	}

	extractor := metadata.NewIMDBExtractorWithBase(cfg.IMDBBaseURL)
	guide := metadata.NewGuideClientWithBase(cfg.EpguidesBaseURL)
	resolver := metadata.NewResolver(catalogClient)
	ingestor := ingest.NewIngestor(store, resolver, extractor, guide, logger)
	discoverySvc := discovery.NewService(catalogClient, store, logger)

	srv := api.NewServer(cfg, store, ingestor, discoverySvc, logger, ver)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
