// Package main provides the captcha-reader command line tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"captcha-reader/internal/classifier"
	"captcha-reader/internal/config"
	"captcha-reader/internal/eval"
	"captcha-reader/internal/solver"
	"captcha-reader/internal/version"

	"github.com/spf13/cobra"
)

const appName = "captcha-reader"

type rootOptions struct {
	configPath string
	verbose    bool
}

type solveOptions struct {
	k         int
	debugPath string
	json      bool
}

type evalOptions struct {
	workers  int
	k        int
	jsonPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Segment and classify CAPTCHA images",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Configure logging before anything else runs.
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			if opts.verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline details to stderr")

	cmd.AddCommand(newSolveCmd(opts), newEvalCmd(opts))
	return cmd
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve <image>...",
		Short: "Print the predicted text of each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := openSolver(root.configPath)
			if err != nil {
				return err
			}
			defer closeFn()
			return runSolve(cmd.OutOrStdout(), s, args, *opts)
		},
	}

	cmd.Flags().IntVar(&opts.k, "k", 0, "Initial K (0 uses the configured default)")
	cmd.Flags().StringVar(&opts.debugPath, "debug", "", "Write a box overlay PNG of the first image to this path")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output results as JSON lines")
	return cmd
}

func newEvalCmd(root *rootOptions) *cobra.Command {
	opts := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval <dir>",
		Short: "Measure accuracy over images named after their ground truth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := openSolver(root.configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runEval(ctx, cmd.OutOrStdout(), s, args[0], *opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Worker count (0 uses NumCPU)")
	cmd.Flags().IntVar(&opts.k, "k", 0, "Initial K (0 uses the configured default)")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "Write the full report as JSON to this path")
	return cmd
}

// openSolver loads the config and the classifier. A classifier that fails
// to load is logged and left nil so that solve reports MODEL_NOT_LOADED.
func openSolver(configPath string) (*solver.Solver, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := classifier.Open(cfg.ClassifierOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: classifier not loaded: %v\n", err)
		return solver.New(nil, cfg.SolverOptions()), func() {}, nil
	}
	return solver.New(c, cfg.SolverOptions()), func() { _ = classifier.Close(c) }, nil
}

type solveOutput struct {
	File  string `json:"file"`
	Text  string `json:"text"`
	K     int    `json:"k,omitempty"`
	Error string `json:"error,omitempty"`
}

func runSolve(w io.Writer, s *solver.Solver, files []string, opts solveOptions) error {
	enc := json.NewEncoder(w)
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		out := solveOutput{File: path}
		p, err := s.Recognize(data, opts.k)
		if err != nil {
			out.Text = solver.Sentinel(err)
			out.Error = err.Error()
		} else {
			out.Text = p.Text
			out.K = p.K
		}

		if opts.json {
			if err := enc.Encode(out); err != nil {
				return err
			}
		} else if len(files) == 1 {
			fmt.Fprintln(w, out.Text)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", path, out.Text)
		}

		if i == 0 && opts.debugPath != "" {
			if err := writeOverlay(s, data, opts.k, opts.debugPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeOverlay(s *solver.Solver, data []byte, k int, path string) error {
	trace, err := s.Analyze(data, k)
	if trace == nil {
		return fmt.Errorf("cannot render overlay: %w", err)
	}
	png, err := trace.Overlay()
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

func runEval(ctx context.Context, w io.Writer, s *solver.Solver, dir string, opts evalOptions) error {
	rep, err := eval.Run(ctx, s, dir, eval.Options{Workers: opts.workers, InitialK: opts.k})
	if err != nil {
		return err
	}

	for _, r := range rep.Results {
		if !r.Correct {
			fmt.Fprintf(w, "MISS  %-24s want %-8s got %s\n", r.File, r.Want, r.Got)
		}
	}
	fmt.Fprintf(w, "\nRun %s: %d files in %s\n", rep.RunID, rep.Total, rep.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Exact:      %d/%d (%.1f%%)\n", rep.Correct, rep.Total, rep.Accuracy*100)
	fmt.Fprintf(w, "Characters: %d/%d (%.1f%%)\n", rep.CorrectChars, rep.Chars, rep.CharAccuracy*100)
	sentinels := make([]string, 0, len(rep.Failures))
	for name := range rep.Failures {
		sentinels = append(sentinels, name)
	}
	sort.Strings(sentinels)
	for _, sentinel := range sentinels {
		fmt.Fprintf(w, "%-17s %d\n", sentinel+":", rep.Failures[sentinel])
	}
	if rep.Cancelled {
		fmt.Fprintf(w, "Cancelled, %d files skipped\n", rep.Skipped)
	}

	if opts.jsonPath != "" {
		return rep.WriteJSON(opts.jsonPath)
	}
	return nil
}
