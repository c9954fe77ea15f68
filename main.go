package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"runleague/internal/config"
	"runleague/internal/database"
	"runleague/internal/handlers"
	"runleague/internal/leaderboard"
	"runleague/internal/metrics"
	"runleague/internal/middleware"
	"runleague/internal/oauth"
	"runleague/internal/strava"
	"runleague/internal/syncer"
)

func main() {
	// Define CLI flags
	printLeaderboard := flag.Bool("print-leaderboard", false, "Print the current leaderboard and exit")
	initDB := flag.Bool("init-db", false, "Initialize the database schema and exit")

	flag.Parse()

	// Check if any CLI command was requested
	if *printLeaderboard || *initDB {
		runCLI(*printLeaderboard, *initDB)
		return
	}

	// Otherwise, start the server
	runServer()
}

func runCLI(printLeaderboard, initDB bool) {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Open database (schema is initialized on open)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	switch {
	case initDB:
		fmt.Printf("Database initialized at %s\n", cfg.DatabasePath)
	case printLeaderboard:
		handlePrintLeaderboard(db)
	}
}

func handlePrintLeaderboard(db *database.DB) {
	entries, err := leaderboard.New(db).Standings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to compute leaderboard: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No athletes yet.")
		return
	}

	fmt.Printf("%-5s %-30s %10s %6s\n", "Rank", "Athlete", "Score", "Runs")
	for i, e := range entries {
		fmt.Printf("%-5d %-30s %10.2f %6d\n", i+1, e.Name, e.TotalScore, e.RunCount)
	}
}

func runServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting runleague server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Database opened successfully")

	// Create Strava client
	stravaClient := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret)

	// Create OAuth manager
	oauthManager := oauth.NewManager(db, stravaClient)

	// Create the sync engine and leaderboard aggregator
	syncEngine := syncer.New(db, stravaClient, db)
	aggregator := leaderboard.New(db)

	// Create handlers
	oauthHandler := handlers.NewOAuthHandler(oauthManager, cfg)
	syncHandler := handlers.NewSyncHandler(db, syncEngine)
	leaderboardHandler := handlers.NewLeaderboardHandler(aggregator)
	activitiesHandler := handlers.NewActivitiesHandler(db)
	athleteHandler := handlers.NewAthleteHandler(db)
	healthHandler := handlers.NewHealthHandler(db)

	// Set up HTTP routes
	mux := http.NewServeMux()

	// OAuth endpoints
	mux.Handle("/oauth-start", middleware.Instrument(metrics.EndpointOAuthStart, oauthHandler.HandleAuthStart))
	mux.Handle("/oauth-callback", middleware.Instrument(metrics.EndpointOAuthCallback, oauthHandler.HandleCallback))

	// Sync and read endpoints
	mux.Handle("/sync", middleware.Instrument(metrics.EndpointSync, syncHandler.HandleSync))
	mux.Handle("/leaderboard", middleware.Instrument(metrics.EndpointLeaderboard, leaderboardHandler.HandleLeaderboard))
	mux.Handle("/activities", middleware.Instrument(metrics.EndpointActivities, activitiesHandler.HandleActivities))
	mux.Handle("/athlete/max-heart-rate", middleware.Instrument(metrics.EndpointMaxHeartRate, athleteHandler.HandleMaxHeartRate))

	// Health check endpoint
	mux.Handle("/health", middleware.Instrument(metrics.EndpointHealth, healthHandler.HandleHealth))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  35 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
