package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plex_harvester/centris"
	"plex_harvester/config"
	"plex_harvester/httputil"
	"plex_harvester/logging"
	"plex_harvester/scheduler"
	"plex_harvester/scraper"
	"plex_harvester/storage"
	"plex_harvester/viewer"
	"plex_harvester/workers"
)

var (
	scrapeNow = flag.Bool("scrape", false, "Run one harvesting pass and exit")
	serveOnly = flag.Bool("serve", false, "Serve the viewer API without scheduling scrapes")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup("harvester.log", cfg.LogLevel)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting plex_harvester...")
	log.Printf("Source: %s (%d pages)", cfg.Scraper.StartURL, cfg.Scraper.NumPages)

	ctx := context.Background()

	if cfg.Postgres.URL == "" {
		log.Fatal("POSTGRES_URL is required")
	}
	pgStore, err := storage.NewPostgresStore(ctx, cfg.Postgres.URL, cfg.Postgres.UpdateExisting)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Postgres.URL))

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	clients := httputil.NewClients(&cfg.Proxy)
	if cfg.Proxy.URL != "" {
		log.Printf("Fetching through proxy: %s", maskConnectionString(cfg.Proxy.URL))
	}

	navigator := scraper.NewNavigator(&cfg.Scraper)
	fetcher := centris.NewFetcher(clients.Scraping)
	orchestrator := scraper.NewOrchestrator(cfg, pgStore, fetcher, navigator)
	orchestrator.SetOpsStore(sqliteStore)

	if cfg.Archive.Enabled() {
		archive, err := storage.NewPageArchive(ctx, storage.S3Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			log.Printf("Warning: page archive disabled: %v", err)
		} else {
			orchestrator.SetArchive(archive)
			log.Printf("Page archive enabled: s3://%s", cfg.Archive.Bucket)
		}
	}

	if *scrapeNow {
		log.Println("Running one harvesting pass...")
		run, err := orchestrator.Run(ctx)
		if err != nil {
			log.Fatalf("Harvesting pass failed: %v", err)
		}
		log.Printf("Pass complete: %d found, %d new, %d skipped, %d errors",
			run.URLsFound, run.ListingsNew, run.ListingsSkipped, run.ErrorsCount)
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !*serveOnly {
		sched := scheduler.New(cfg, orchestrator)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()

		liveness := workers.NewLivenessWorker(pgStore, clients.Scraping)
		go liveness.Run(ctx, 24*time.Hour, 20, 30*time.Minute)
		log.Println("Liveness worker started")
	}

	srv := viewer.NewServer(pgStore, sqliteStore)
	go func() {
		if err := srv.ListenAndServe(ctx, cfg.Viewer.Addr); err != nil {
			log.Printf("Viewer server stopped: %v", err)
		}
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	log.Println("Goodbye!")
}

// maskConnectionString masks the password in a connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
