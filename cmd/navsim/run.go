package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/detector-navigator/core"
	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/internal/observability"
)

type runOptions struct {
	printTrack int
	registry   *prometheus.Registry
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Propagate the track grid and summarise the outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.printTrack, "print-track", -1, "print the navigation transcript of this track index")
	return cmd
}

func (a *app) run(ctx context.Context, out io.Writer, opts *runOptions) error {
	ctx, runID := logging.EnsureRunID(ctx)
	log := a.log.With(logging.String("run_id", runID))

	shutdown, err := observability.InitTracing(ctx, a.cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	var reg prometheus.Registerer
	if opts.registry != nil {
		reg = opts.registry
	}
	collector, err := observability.NewNavigationCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if srv := serveMetrics(a.cfg.Metrics.Addr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	det, tracks, err := a.setup(ctx)
	if err != nil {
		return err
	}

	nav := core.NewNavigator(det,
		core.WithIntersectConfig(a.cfg.Intersection()),
		core.WithMetrics(collector),
		core.WithLogger(log),
	)
	prop := core.NewPropagator(nav, a.cfg.Stepper(),
		core.WithPropagationConfig(a.cfg.Limits()),
		core.WithPropagationMetrics(collector),
		core.WithPropagationLogger(log),
	)

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	collector.SetWorkers(workers)

	var transcript *core.PrintInspector
	runner := &core.BatchRunner{
		Propagator:   prop,
		Workers:      workers,
		StateOptions: a.stateOptions(),
		Log:          log,
	}
	if opts.printTrack >= 0 {
		transcript = &core.PrintInspector{}
		runner.Inspector = func(id int) core.Inspector {
			if id == opts.printTrack {
				return transcript
			}
			return nil
		}
	}

	start := time.Now()
	results, err := runner.Run(ctx, tracks)
	collector.ObserveBatch(time.Since(start))
	if err != nil {
		return err
	}

	writeSummary(out, runID, results)
	if transcript != nil {
		fmt.Fprintf(out, "track %d transcript:\n%s", opts.printTrack, transcript.String())
	}
	return nil
}

func writeSummary(out io.Writer, runID string, results []core.TrackResult) {
	outcomes := map[string]int{}
	var steps int
	for _, r := range results {
		outcomes[r.Outcome()]++
		steps += r.Steps
	}
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "run %s: %d tracks, %d steps\n", runID, len(results), steps)
	for _, name := range names {
		fmt.Fprintf(out, "  %-12s %d\n", name, outcomes[name])
	}
}
