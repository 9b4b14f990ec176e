// Package main implements the daykeep CLI for logging wellness entries and
// printing the current recommendation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
	"github.com/daykeep-dev/daykeep/pkg/home"
	"github.com/daykeep-dev/daykeep/pkg/insights"
	"github.com/daykeep-dev/daykeep/pkg/recommend"
	"github.com/daykeep-dev/daykeep/pkg/stepsource"
)

var (
	dataDir     = flag.String("data-dir", "", "Data directory (or set DAYKEEP_DATA_DIR; defaults to the user config dir)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion = flag.Bool("version", false, "Show version")

	// log flags
	foodText    = flag.String("food", "", "Food text for 'log'")
	sleepText   = flag.String("sleep", "", "Sleep hours for 'log' (e.g. 7.5)")
	workoutText = flag.String("workout", "", "Workout text for 'log'")
	stepCount   = flag.Int("steps", 0, "Step count snapshot for 'log'")
	latitude    = flag.Float64("lat", 0, "Latitude for 'log' or 'home'")
	longitude   = flag.Float64("lon", 0, "Longitude for 'log' or 'home'")
	hasCoords   = flag.Bool("coords", false, "Attach -lat/-lon to the entry")

	// now flags
	explain  = flag.Bool("explain", false, "Show every scored candidate for 'now'")
	stepsURL = flag.String("steps-url", "", "Health bridge base URL for a live step reading (or set DAYKEEP_STEPS_URL)")

	// insights flags
	geminiAPIKey = flag.String("gemini-key", "", "Gemini API key for 'insights' (or set GEMINI_API_KEY)")
	geminiModel  = flag.String("gemini-model", "gemini-2.5-flash-lite", "Gemini model for 'insights' (or set GEMINI_MODEL)")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID for 'insights' (or set GCP_PROJECT)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command>

Commands:
  log        Record a day entry (-food, -sleep, -workout, -steps, -coords -lat -lon)
  now        Print the current recommendation (-explain, -steps-url)
  today      List today's entries
  home       Show the saved home location; 'home set -lat ... -lon ...' saves
             it, 'home dist -lat ... -lon ...' prints the distance from it
  insights   Generate a weekly summary of the 7-day log (needs a Gemini key)

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("daykeep v1.2.0")
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *dataDir == "" {
		*dataDir = os.Getenv("DAYKEEP_DATA_DIR")
	}
	if *dataDir == "" {
		if configDir, err := os.UserConfigDir(); err == nil {
			*dataDir = filepath.Join(configDir, "daykeep")
		} else {
			*dataDir = ".daykeep"
		}
	}
	if *stepsURL == "" {
		*stepsURL = os.Getenv("DAYKEEP_STEPS_URL")
	}
	if *geminiAPIKey == "" {
		*geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if *geminiModel == "gemini-2.5-flash-lite" && os.Getenv("GEMINI_MODEL") != "" {
		*geminiModel = os.Getenv("GEMINI_MODEL")
	}
	if *gcpProject == "" {
		*gcpProject = os.Getenv("GCP_PROJECT")
	}

	ctx := context.Background()

	store, err := daylog.NewSQLiteStore(*dataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening day log: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var runErr error
	switch args[0] {
	case "log":
		runErr = runLog(ctx, store)
	case "now":
		runErr = runNow(ctx, store, logger)
	case "today":
		runErr = runToday(ctx, store)
	case "home":
		runErr = runHome(args[1:], logger)
	case "insights":
		runErr = runInsights(ctx, store, logger)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		usage()
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func runLog(ctx context.Context, store daylog.Store) error {
	entry := daylog.DayEntry{
		Food:    *foodText,
		Sleep:   *sleepText,
		Workout: *workoutText,
		Steps:   *stepCount,
	}
	if *hasCoords {
		entry.Location = &daylog.Location{Latitude: *latitude, Longitude: *longitude}
	}
	if entry.Empty() {
		return fmt.Errorf("nothing to log; pass at least one of -food, -sleep, -workout, -steps or -coords")
	}

	if err := store.Append(ctx, entry); err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}
	color.New(color.FgGreen).Println("Logged.")
	return nil
}

func runNow(ctx context.Context, store daylog.Store, logger *slog.Logger) error {
	liveSteps := 0
	if *stepsURL != "" {
		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		steps, err := stepsource.New(*stepsURL, logger).TodaySteps(fetchCtx)
		if err != nil {
			// A dead bridge never blocks the recommendation.
			logger.Warn("live step reading unavailable", "error", err)
		} else {
			liveSteps = steps
		}
	}

	entries, err := store.TodayEntries(ctx)
	if err != nil {
		logger.Warn("reading today's entries failed", "error", err)
		entries = nil
	}

	hour := time.Now().Hour()
	text := recommend.Evaluate(entries, hour, liveSteps)
	color.New(color.FgCyan, color.Bold).Println(text)

	if *explain {
		candidates := recommend.EvaluateCandidates(entries, hour, liveSteps)
		if len(candidates) == 0 {
			fmt.Println("\nNo rule matched; this is the fallback suggestion.")
			return nil
		}
		fmt.Println("\nCandidates:")
		for _, c := range candidates {
			line := fmt.Sprintf("  %6.2f  [%s]  %s  (%s)", c.Score, c.Category, c.Text, c.Rule)
			if c.Text == text {
				color.New(color.FgYellow).Println(line)
			} else {
				fmt.Println(line)
			}
		}
	}
	return nil
}

func runToday(ctx context.Context, store daylog.Store) error {
	entries, err := store.TodayEntries(ctx)
	if err != nil {
		return fmt.Errorf("reading today's entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No entries logged today.")
		return nil
	}

	timeColor := color.New(color.FgHiBlack)
	for _, e := range entries {
		timeColor.Printf("%s  ", e.CreatedAt.Format("15:04"))
		first := true
		writeField := func(label, value string) {
			if value == "" {
				return
			}
			if !first {
				fmt.Print("  ")
			}
			fmt.Printf("%s: %s", label, value)
			first = false
		}
		writeField("food", e.Food)
		writeField("sleep", e.Sleep)
		writeField("workout", e.Workout)
		if e.Steps > 0 {
			writeField("steps", fmt.Sprintf("%d", e.Steps))
		}
		if e.Location != nil {
			writeField("at", fmt.Sprintf("%.4f,%.4f", e.Location.Latitude, e.Location.Longitude))
		}
		fmt.Println()
	}
	return nil
}

func runHome(args []string, logger *slog.Logger) error {
	tracker, err := home.NewTracker(*dataDir, logger)
	if err != nil {
		return fmt.Errorf("loading home location: %w", err)
	}

	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "set":
		if err := tracker.SetHome(daylog.Location{Latitude: *latitude, Longitude: *longitude}); err != nil {
			return fmt.Errorf("saving home location: %w", err)
		}
		color.New(color.FgGreen).Println("Home location saved.")
	case "dist":
		meters, ok := tracker.DistanceFrom(daylog.Location{Latitude: *latitude, Longitude: *longitude})
		if !ok {
			return fmt.Errorf("no home location saved yet; run 'home set -lat ... -lon ...' first")
		}
		if meters >= 1000 {
			fmt.Printf("%.1f km from home\n", meters/1000)
		} else {
			fmt.Printf("%.0f m from home\n", meters)
		}
	case "":
		loc, ok := tracker.Home()
		if !ok {
			fmt.Println("No home location saved.")
			return nil
		}
		fmt.Printf("Home: %.4f,%.4f\n", loc.Latitude, loc.Longitude)
	default:
		return fmt.Errorf("unknown home subcommand %q (want 'set' or 'dist')", sub)
	}
	return nil
}

func runInsights(ctx context.Context, store daylog.Store, logger *slog.Logger) error {
	if *geminiAPIKey == "" && *gcpProject == "" {
		return fmt.Errorf("insights needs -gemini-key (or GEMINI_API_KEY) or -gcp-project")
	}

	entries, err := store.EntriesSince(ctx, time.Now().AddDate(0, 0, -daylog.RetentionDays))
	if err != nil {
		return fmt.Errorf("reading the week's entries: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	client := insights.NewClient(*geminiAPIKey, *geminiModel, *gcpProject, logger)
	summary, err := client.WeeklySummary(callCtx, entries)
	if err != nil {
		return err
	}

	color.New(color.Bold).Println("This week")
	fmt.Println(summary.Overview)
	if len(summary.Observations) > 0 {
		color.New(color.Bold).Println("\nObservations")
		for _, o := range summary.Observations {
			fmt.Printf("  - %s\n", o)
		}
	}
	if len(summary.Suggestions) > 0 {
		color.New(color.Bold).Println("\nSuggestions")
		for _, s := range summary.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}
