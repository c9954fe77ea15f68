package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"runleague/internal/config"
	"runleague/internal/database"
	"runleague/internal/leaderboard"
)

func main() {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" {
		printUsage()
		return
	}

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

	switch command {
	case "leaderboard":
		handleLeaderboard(db)
	case "athletes":
		handleAthletes(db)
	case "runs":
		handleRuns(db)
	case "set-max-hr":
		handleSetMaxHeartRate(db)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`runleague CLI - League Administration

Usage:
  cli <command> [options]

Commands:
  leaderboard                 Print the current standings
  athletes                    List registered athletes
  runs <athlete_id>           List an athlete's scored runs
  set-max-hr <athlete_id> <bpm>  Set an athlete's max heart rate
  help                        Show this help message

Examples:
  cli leaderboard
  cli runs 12345
  cli set-max-hr 12345 185

Environment Variables Required:
  STRAVA_CLIENT_ID       - Strava application client ID
  STRAVA_CLIENT_SECRET   - Strava application client secret
  DATABASE_PATH          - SQLite database path (default: ./data.db)`)
}

func handleLeaderboard(db *database.DB) {
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

func handleAthletes(db *database.DB) {
	athletes, err := db.ListAthletes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list athletes: %v\n", err)
		os.Exit(1)
	}

	if len(athletes) == 0 {
		fmt.Println("No athletes yet.")
		return
	}

	fmt.Printf("Found %d athlete(s):\n\n", len(athletes))
	for _, a := range athletes {
		fmt.Printf("ID: %s\n", a.AthleteID)
		if a.Name != nil {
			fmt.Printf("  Name: %s\n", *a.Name)
		}
		fmt.Printf("  Max HR: %d\n", a.MaxHeartRate)
		fmt.Printf("  Joined: %s\n", a.JoinedAt.Format(time.RFC3339))
		fmt.Println()
	}
}

func handleRuns(db *database.DB) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: Athlete ID required")
		fmt.Fprintln(os.Stderr, "Usage: cli runs <athlete_id>")
		os.Exit(1)
	}
	athleteID := os.Args[2]

	runs, err := db.ListRunsByAthlete(athleteID, 0, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Printf("No runs for athlete %s.\n", athleteID)
		return
	}

	fmt.Printf("Found %d run(s):\n\n", len(runs))
	for _, r := range runs {
		fmt.Printf("%s  %s\n", r.StartDate.Format("2006-01-02 15:04"), r.Name)
		fmt.Printf("  Distance: %.1f km  Moving: %s\n", r.DistanceMeters/1000, (time.Duration(r.MovingTimeSeconds) * time.Second).String())
		fmt.Printf("  Score: %.2f (distance %.2f, heart rate %.2f, bonus %.0f)\n",
			r.TotalScore, r.DistanceScore, r.HeartRateScore, r.ConsistencyBonus)
		fmt.Println()
	}
}

func handleSetMaxHeartRate(db *database.DB) {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "Error: Athlete ID and heart rate required")
		fmt.Fprintln(os.Stderr, "Usage: cli set-max-hr <athlete_id> <bpm>")
		os.Exit(1)
	}
	athleteID := os.Args[2]

	bpm, err := strconv.Atoi(os.Args[3])
	if err != nil || bpm <= 0 {
		fmt.Fprintf(os.Stderr, "Error: Invalid heart rate: %s\n", os.Args[3])
		os.Exit(1)
	}

	if err := db.UpdateAthleteMaxHeartRate(athleteID, bpm); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Max heart rate for athlete %s set to %d\n", athleteID, bpm)
}
