package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/detector-navigator/core"
	"github.com/signalsfoundry/detector-navigator/internal/logging"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Compare every navigated track against a brute-force ray scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) scan(ctx context.Context, out io.Writer) error {
	ctx, runID := logging.EnsureRunID(ctx)
	log := a.log.With(logging.String("run_id", runID))

	det, tracks, err := a.setup(ctx)
	if err != nil {
		return err
	}
	nav := core.NewNavigator(det, core.WithIntersectConfig(a.cfg.Intersection()), core.WithLogger(log))
	runner := &core.BatchRunner{
		Propagator: core.NewPropagator(nav, a.cfg.Stepper(),
			core.WithPropagationConfig(a.cfg.Limits()),
			core.WithPropagationLogger(log),
		),
		Workers:      a.cfg.Workers,
		StateOptions: a.stateOptions(),
		Log:          log,
	}
	results, err := runner.Run(ctx, tracks)
	if err != nil {
		return err
	}

	mismatches := 0
	for i, r := range results {
		truth := core.Trace(core.RayScan(det, tracks[i], a.cfg.Intersection()))
		err := r.Err
		if err == nil {
			err = core.CompareTraces(truth, r.Trace)
		}
		if err != nil {
			mismatches++
			fmt.Fprintf(out, "track %d: %v\n", r.ID, err)
			log.Warn(ctx, "navigation disagrees with ray scan",
				logging.Int("track_id", r.ID),
				logging.Err(err),
			)
		}
	}
	fmt.Fprintf(out, "scanned %d tracks, %d mismatches\n", len(results), mismatches)
	if mismatches > 0 {
		return fmt.Errorf("%w: %d of %d tracks", core.ErrTraceMismatch, mismatches, len(results))
	}
	return nil
}
