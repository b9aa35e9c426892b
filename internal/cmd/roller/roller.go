// Package roller parses roller CLI flags and runs a commit-reveal roll
// session: derive the commitment, roll a batch, print the checkpoint, and
// demonstrate one continuation from it.
package roller

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/heyztb/cairoroller/internal/fair"
	entrypoint "github.com/heyztb/cairoroller/internal/platform/cmd"
	"github.com/heyztb/cairoroller/internal/random"
	"github.com/heyztb/cairoroller/internal/roller/service"
	"github.com/heyztb/cairoroller/internal/roller/storage/sqlite"
)

// Config holds roller command configuration.
type Config struct {
	Seed       string `env:"CAIROROLLER_SEED"`
	Count      int    `env:"CAIROROLLER_COUNT" envDefault:"10"`
	Checkpoint string `env:"CAIROROLLER_CHECKPOINT"`
	FollowUp   int    `env:"CAIROROLLER_FOLLOW_UP" envDefault:"5"`
	DBPath     string `env:"CAIROROLLER_DB"`
	SessionID  string `env:"CAIROROLLER_SESSION"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "secret seed, decimal or 0x-hex (empty = generate)")
	fs.IntVar(&cfg.Count, "count", cfg.Count, "number of dice outcomes to roll")
	fs.StringVar(&cfg.Checkpoint, "checkpoint", cfg.Checkpoint, "resume from this chain checkpoint (empty or 0 = start fresh)")
	fs.IntVar(&cfg.FollowUp, "continue", cfg.FollowUp, "follow-up roll count for the continuation demonstration")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "optional SQLite path to persist the session")
	fs.StringVar(&cfg.SessionID, "session", cfg.SessionID, "resume a stored session by id (requires -db)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the roller command.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRoller, func(ctx context.Context) error {
		return run(ctx, cfg, os.Stdout)
	})
}

func run(ctx context.Context, cfg Config, w io.Writer) error {
	if cfg.SessionID != "" {
		return continueStoredSession(ctx, cfg, w)
	}

	seed, err := resolveSeed(cfg.Seed)
	if err != nil {
		return err
	}

	engine := fair.NewEngine()
	commitment := engine.DeriveCommitment(seed)
	fmt.Fprintf(w, "Commitment: %s\n", commitment)
	fmt.Fprintf(w, "Seed:       %s\n", seed)

	start, fresh, err := resolveStart(seed, cfg.Checkpoint)
	if err != nil {
		return err
	}

	var outcomes []int
	var checkpoint fair.Element
	if fresh && cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer store.Close()

		batch, err := service.New(store).StartSession(ctx, seed, cfg.Count)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		outcomes, checkpoint = batch.Outcomes, batch.Checkpoint
		fmt.Fprintf(w, "Session:    %s\n", batch.SessionID)
	} else {
		outcomes, checkpoint, err = engine.Roll(start, cfg.Count)
		if err != nil {
			return fmt.Errorf("roll: %w", err)
		}
	}

	fmt.Fprintf(w, "Outcomes:   %s\n", formatOutcomes(outcomes))
	fmt.Fprintf(w, "Checkpoint: %s\n", checkpoint)

	// Demonstrate that anyone holding only the checkpoint can continue the
	// chain; these follow-up rolls are not persisted, so a later resume of
	// the stored session reproduces exactly the same values.
	followUp, next, err := engine.Resume(checkpoint, cfg.FollowUp)
	if err != nil {
		return fmt.Errorf("continuation demo: %w", err)
	}
	fmt.Fprintf(w, "\nContinuation (%d rolls): %s\n", cfg.FollowUp, formatOutcomes(followUp))
	fmt.Fprintf(w, "Next checkpoint: %s\n", next)
	return nil
}

func continueStoredSession(ctx context.Context, cfg Config, w io.Writer) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("-session requires -db")
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	batch, err := service.New(store).ContinueSession(ctx, cfg.SessionID, cfg.Count)
	if err != nil {
		return fmt.Errorf("continue session: %w", err)
	}

	fmt.Fprintf(w, "Session:    %s\n", batch.SessionID)
	fmt.Fprintf(w, "Commitment: %s\n", batch.Commitment)
	fmt.Fprintf(w, "Outcomes:   %s\n", formatOutcomes(batch.Outcomes))
	fmt.Fprintf(w, "Checkpoint: %s\n", batch.Checkpoint)
	return nil
}

// resolveSeed parses the configured seed or generates a fresh random one.
func resolveSeed(value string) (fair.Element, error) {
	if strings.TrimSpace(value) == "" {
		seed, err := random.NewSeed()
		if err != nil {
			return fair.Element{}, fmt.Errorf("generate seed: %w", err)
		}
		return seed, nil
	}
	seed, err := fair.ParseElement(value)
	if err != nil {
		return fair.Element{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// resolveStart picks the chain starting head: the checkpoint when one is
// supplied, otherwise the seed itself. A checkpoint of zero means "start
// fresh", matching the seed-only invocation.
func resolveStart(seed fair.Element, checkpoint string) (fair.Element, bool, error) {
	if strings.TrimSpace(checkpoint) == "" {
		return seed, true, nil
	}
	parsed, err := fair.ParseElement(checkpoint)
	if err != nil {
		return fair.Element{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if parsed.IsZero() {
		return seed, true, nil
	}
	return parsed, false, nil
}

func formatOutcomes(outcomes []int) string {
	parts := make([]string, len(outcomes))
	for i, outcome := range outcomes {
		parts[i] = fmt.Sprintf("%d", outcome)
	}
	return strings.Join(parts, " ")
}
