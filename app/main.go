package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podkeep/app/api"
	"podkeep/app/cfg"
	"podkeep/app/chapters"
	"podkeep/app/config"
	"podkeep/app/database"
	"podkeep/app/feed"
	"podkeep/app/refresh"
	"podkeep/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	c, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting PodKeep %s...", c.Version)

	log.Printf("Opening database at %s...", c.DBPath)
	store, err := database.NewStore(c.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer store.Close()

	log.Printf("Loading subscriptions from %s...", c.FeedsFile)
	subs, err := config.NewLoader(c.FeedsFile).Load()
	if err != nil {
		log.Fatal("Failed to load subscriptions: ", err)
	}
	log.Printf("Loaded %d feeds and %d host quirks", len(subs.Feeds), len(subs.Quirks))

	quirkEntries := make([]feed.HostQuirk, 0, len(subs.Quirks))
	for _, q := range subs.Quirks {
		quirkEntries = append(quirkEntries, feed.HostQuirk{
			Host:            q.Host,
			SkipConditional: q.SkipConditional,
			ForceNoCache:    q.ForceNoCache,
		})
	}

	httpClient := &http.Client{}
	fetcher := feed.NewFetcher(httpClient, feed.NewQuirkTable(quirkEntries), c.UserAgent, c.FeedTimeout, c.FeedRetryAttempts)
	parser := feed.NewParser()
	resolver := chapters.NewResolver(httpClient, store.Chapters, c.UserAgent, c.FeedTimeout)
	extractor := feed.NewContentExtractor(httpClient, c.UserAgent, c.FeedTimeout)

	orchestrator := refresh.NewOrchestrator(store, fetcher, parser, resolver, extractor, refresh.Options{
		MaxConcurrent: c.MaxConcurrentRefreshes,
		PerHostMax:    c.PerHostMaxConnections,
		RetentionDays: c.ArticleRetentionDays,
		KeepFavorites: c.KeepFavorites,
	})

	log.Println("Registering subscribed feeds...")
	if err := orchestrator.SyncSubscriptions(subs.Feeds); err != nil {
		log.Fatal("Failed to register feeds: ", err)
	}

	scheduler := tasks.NewScheduler(orchestrator, time.Duration(c.RefreshInterval)*time.Second)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler: ", err)
	}
	defer scheduler.Stop()

	log.Println("Initializing HTTP server...")
	handler := api.NewHandler(store, orchestrator, c.Version)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", c.Port)
		if c.APIAccessKey != "" {
			log.Println("API authentication enabled (X-API-Key)")
		} else {
			log.Println("API authentication disabled (API_ACCESS_KEY not set)")
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("PodKeep started successfully")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("PodKeep shutdown complete")
}
