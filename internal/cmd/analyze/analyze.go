// Package analyze parses analyze CLI flags and renders a dice distribution
// report for outcomes piped from the roller (or any 1-6 integer stream).
package analyze

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	entrypoint "github.com/heyztb/cairoroller/internal/platform/cmd"
	"github.com/heyztb/cairoroller/internal/stats"
)

// Config holds analyze command configuration.
type Config struct {
	File string `env:"CAIROROLLER_ANALYZE_FILE"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.File, "file", cfg.File, "read outcomes from this file instead of stdin")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the analyze command.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAnalyze, func(context.Context) error {
		return run(cfg, os.Stdin, os.Stdout)
	})
}

func run(cfg Config, in io.Reader, out io.Writer) error {
	if cfg.File != "" {
		f, err := os.Open(cfg.File)
		if err != nil {
			return fmt.Errorf("open outcomes file: %w", err)
		}
		defer f.Close()
		in = f
	}

	outcomes, err := stats.ParseOutcomes(in)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no dice outcomes found in input; expected integers 1-6")
	}

	summary, err := stats.Analyze(outcomes)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== DICE ROLL DISTRIBUTION ANALYSIS ===")
	return stats.WriteReport(out, summary)
}
