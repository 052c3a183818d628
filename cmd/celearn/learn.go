package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/celearn/internal/domain"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/kb"
	"github.com/kailas-cloud/celearn/internal/kb/posneg"
	logpkg "github.com/kailas-cloud/celearn/internal/logger"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
)

type learnOptions struct {
	kbPath       string
	examplesPath string
	positives    []string
	negatives    []string
	seed         string
	partitioned  bool
	workers      int
	timeBudget   time.Duration
	noise        float64
	stopOnFirst  bool
	maxResults   int
	maxExp       int
	heuristic    string
	maxRoleDepth int
	allowance    int
	treeFile     string
	treeAppend   bool
	asJSON       bool
}

func newLearnCmd(logLevel *string) *cobra.Command {
	opts := learnOptions{}
	defaults := learner.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Search for a class expression separating the examples",
		Example: `  celearn learn --kb family.yaml --examples father.yaml --stop-on-first
  celearn learn --kb family.yaml -p stefan -p markus -n heinz -n anna --partitioned --workers 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := *logLevel
			if level == "" {
				level = "warn"
			}
			logger, err := logpkg.NewCLI(level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			req, err := opts.request()
			if err != nil {
				return err
			}
			k, err := kb.LoadFile(opts.kbPath)
			if err != nil {
				return err
			}

			svc, err := runuc.New(k, runuc.Config{
				Learner:      defaults,
				Heuristic:    opts.heuristic,
				MaxRoleDepth: opts.maxRoleDepth,
				Workers:      opts.workers,
			}, runuc.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() { _ = svc.Shutdown(context.Background()) }()

			return runLearn(cmd, svc, req, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.kbPath, "kb", "", "knowledge base YAML file")
	f.StringVar(&opts.examplesPath, "examples", "", "YAML file with positives and negatives lists")
	f.StringSliceVarP(&opts.positives, "positive", "p", nil, "positive example (repeatable)")
	f.StringSliceVarP(&opts.negatives, "negative", "n", nil, "negative example (repeatable)")
	f.StringVar(&opts.seed, "seed", "", "start concept (default TOP)")
	f.BoolVar(&opts.partitioned, "partitioned", false, "split the positives across workers")
	f.IntVar(&opts.workers, "workers", 2, "workers of a partitioned search")
	f.DurationVar(&opts.timeBudget, "time-budget", defaults.TimeBudget, "wall-clock budget per search")
	f.Float64Var(&opts.noise, "noise", 0, "noise percentage 0..100")
	f.BoolVar(&opts.stopOnFirst, "stop-on-first", false, "stop at the first correct and complete expression")
	f.IntVar(&opts.maxResults, "max-results", defaults.Capacity, "best hypotheses to keep")
	f.IntVar(&opts.maxExp, "max-expansions", 0, "expansion limit, 0 = unlimited")
	f.StringVar(&opts.heuristic, "heuristic", "coverage", "search heuristic: coverage, negatives")
	f.IntVar(&opts.maxRoleDepth, "max-role-depth", 2, "maximum nesting of existential restrictions")
	f.IntVar(&opts.allowance, "allowance", 0, "positives the reduced definitions may leave uncovered")
	f.StringVar(&opts.treeFile, "tree-file", "", "write the search tree to this file")
	f.BoolVar(&opts.treeAppend, "tree-append", false, "append to --tree-file instead of replacing it")
	f.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func (o learnOptions) request() (runuc.Request, error) {
	pos := domain.NewExampleSet(o.positives...)
	neg := domain.NewExampleSet(o.negatives...)
	if o.examplesPath != "" {
		fp, fn, err := posneg.LoadExamples(o.examplesPath)
		if err != nil {
			return runuc.Request{}, err
		}
		pos = pos.Union(fp)
		neg = neg.Union(fn)
	}
	if pos.Len() == 0 {
		return runuc.Request{}, fmt.Errorf("no positive examples: use --examples or --positive")
	}

	req := runuc.Request{
		Positives:             pos.Sorted(),
		Negatives:             neg.Sorted(),
		Seed:                  o.seed,
		Mode:                  domrun.ModeSingle,
		TimeBudget:            &o.timeBudget,
		NoisePercentage:       &o.noise,
		StopOnFirstDefinition: &o.stopOnFirst,
		MaxResults:            &o.maxResults,
		MaxExpansions:         &o.maxExp,
	}
	if o.partitioned {
		req.Mode = domrun.ModePartitioned
		req.Workers = o.workers
	}
	return req, nil
}

func runLearn(cmd *cobra.Command, svc *runuc.Service, req runuc.Request, opts learnOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started, err := svc.Start(ctx, req)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = svc.Stop(context.Background(), started.ID)
	}()

	sum, err := svc.Wait(context.Background(), started.ID)
	if err != nil {
		return err
	}
	if sum.Error != "" {
		return fmt.Errorf("search failed: %s", sum.Error)
	}

	reduced, err := svc.Definitions(context.Background(), started.ID, opts.allowance)
	if err != nil {
		return err
	}

	if opts.treeFile != "" {
		tree, err := svc.Tree(context.Background(), started.ID)
		if err != nil {
			return err
		}
		if err := writeTree(opts.treeFile, started.ID, tree, opts.treeAppend); err != nil {
			return fmt.Errorf("write search tree: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSONResult(out, sum, reduced)
	}
	writeTextResult(out, sum, reduced)
	return nil
}

// writeTree replaces path with the tree, or appends it under a run header.
func writeTree(path, runID, tree string, appendTree bool) error {
	if !appendTree {
		return os.WriteFile(filepath.Clean(path), []byte(tree), 0o600)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "# run %s\n%s", runID, tree); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
