// Command simulad is the operator trigger for the business simulation: it
// loads the current world from SQLite, processes one or more rounds, and
// advances the global round counter after each successful close.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/electronova/ecpcim/internal/config"
	"github.com/electronova/ecpcim/internal/engine"
	"github.com/electronova/ecpcim/internal/market"
	"github.com/electronova/ecpcim/internal/notify"
	"github.com/electronova/ecpcim/internal/store"
)

func main() {
	rounds := flag.Int("rounds", 1, "number of rounds to process")
	seedDemo := flag.Bool("seed", false, "seed a demo cohort when the database is empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	ctx := context.Background()

	if *seedDemo {
		if err := db.Seed(ctx, "Alpha Industries", "Beta Manufacturing", "Gamma Logistics"); err != nil {
			slog.Error("seed failed", "error", err)
			os.Exit(1)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// A real deployment subscribes a push transport on a notify.Hub; the
	// CLI trigger just records round changes in the log.
	processor := engine.New(db, notify.LogNotifier{}, market.NewSeededNoise(seed))

	for i := 0; i < *rounds; i++ {
		results, err := processor.ProcessRound(ctx)
		if err != nil {
			slog.Error("round processing failed", "error", err)
			os.Exit(1)
		}

		// The engine processed the current round; advancing the counter is
		// the trigger's responsibility.
		if err := db.AdvanceRound(ctx); err != nil {
			slog.Error("failed to advance round", "error", err)
			os.Exit(1)
		}

		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("%-24s  SAVE FAILED: %v\n", r.Name, r.Err)
				continue
			}
			fmt.Printf("%-24s  sold %5d  revenue %12s\n", r.Name, r.UnitsSold, r.Revenue.StringFixed(2))
		}
	}
}
