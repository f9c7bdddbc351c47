// Command simulate plays batches of bot matches and reports invariant violations
// alongside basic match statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guinote/internal/bot"
	"guinote/internal/config"
	"guinote/internal/simulation"
)

var (
	matches    int
	workers    int
	seed       int64
	team0Level string
	team1Level string
	configPath string
	maxMoves   int
)

func init() {
	flag.IntVar(&matches, "matches", 1000, "Number of matches to play")
	flag.IntVar(&workers, "workers", 0, "Number of worker goroutines (0 = auto-detect CPU count)")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = use current time)")
	flag.StringVar(&team0Level, "team0", "good", "Bot level of team 0 (random, good)")
	flag.StringVar(&team1Level, "team1", "good", "Bot level of team 1 (random, good)")
	flag.StringVar(&configPath, "config", "", "JSON config file with house rules (optional)")
	flag.IntVar(&maxMoves, "max-moves", simulation.DefaultMaxMoves, "Abort a match after this many moves")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	var levels [2]bot.BotLevel
	for team, name := range []string{team0Level, team1Level} {
		if levels[team], err = bot.ParseLevel(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Playing %d matches (%s vs %s, seed %d)...\n", matches, team0Level, team1Level, seed)
	start := time.Now()
	stats := simulation.RunBatchParallel(ctx, simulation.Options{
		Rules:    cfg.DomainRules(),
		Levels:   levels,
		MaxMoves: maxMoves,
	}, matches, seed, workers)
	elapsed := time.Since(start)

	printStats(stats, elapsed)
	if !stats.OK() {
		fmt.Fprintf(os.Stderr, "\nFirst problem: %s\n", stats.FirstProblem)
		os.Exit(1)
	}
}

func printStats(s simulation.AggregatedStats, elapsed time.Duration) {
	pct := func(n int) float64 {
		if s.TotalMatches == 0 {
			return 0
		}
		return float64(n) / float64(s.TotalMatches) * 100
	}
	fmt.Printf("\nMatches:        %d in %s (%s/match)\n", s.TotalMatches, elapsed.Round(time.Millisecond), time.Duration(s.AvgDurationNs))
	fmt.Printf("Team 0 wins:    %d (%.1f%%)\n", s.Team0Wins, pct(s.Team0Wins))
	fmt.Printf("Team 1 wins:    %d (%.1f%%)\n", s.Team1Wins, pct(s.Team1Wins))
	fmt.Printf("Hands/match:    %.2f avg, %.1f median\n", s.AvgHands, s.MedianHands)
	fmt.Printf("Moves/match:    %.1f\n", s.AvgMoves)
	fmt.Printf("Vueltas:        %.1f%% of hands\n", s.VueltasRate*100)
	fmt.Printf("Melds/hand:     %.2f\n", s.MeldsPerHand)
	fmt.Printf("Errors:         %d\n", s.Errors)
	fmt.Printf("Violations:     %d\n", s.Violations)
}
