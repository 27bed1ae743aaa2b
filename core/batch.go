package core

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/detector-navigator/internal/logging"
)

const tracerName = "github.com/signalsfoundry/detector-navigator/core"

// TrackResult is the outcome of propagating one track of a batch.
type TrackResult struct {
	ID int
	Result
	Trace []TraceEntry
}

// BatchRunner propagates many independent tracks in parallel. The geometry
// and the navigator are shared; every track gets its own NavigationState.
type BatchRunner struct {
	Propagator *Propagator
	// Workers bounds the number of concurrently propagated tracks. Zero
	// uses GOMAXPROCS.
	Workers int
	// StateOptions are applied to every per-track state.
	StateOptions []StateOption
	// Inspector, when set, builds an extra inspector for each track. It
	// runs next to the tracer that fills TrackResult.Trace.
	Inspector func(id int) Inspector
	// Log receives the batch summary.
	Log logging.Logger
}

// Run propagates tracks and returns one result per track, in input order.
// Per-track failures are reported in the results; only context
// cancellation fails the batch.
func (b *BatchRunner) Run(ctx context.Context, tracks []Track) ([]TrackResult, error) {
	log := b.Log
	if log == nil {
		log = logging.Noop()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "navigation.batch",
		trace.WithAttributes(
			attribute.Int("navigation.tracks", len(tracks)),
			attribute.Int("navigation.workers", workers),
		))
	defer span.End()

	results := make([]TrackResult, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range tracks {
		id, trk := i, tracks[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[id] = b.runOne(gctx, id, trk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return results, fmt.Errorf("batch propagation: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("navigation.failed", failed))
	log.Info(ctx, "batch propagation finished",
		logging.Int("tracks", len(tracks)),
		logging.Int("failed", failed),
	)
	return results, nil
}

func (b *BatchRunner) runOne(ctx context.Context, id int, trk Track) TrackResult {
	ctx = logging.ContextWithTrackID(ctx, id)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "navigation.track",
		trace.WithAttributes(attribute.Int("navigation.track_id", id)))
	defer span.End()

	tracer := &ObjectTracer{}
	opts := append([]StateOption{}, b.StateOptions...)
	var insp Inspector = tracer
	if b.Inspector != nil {
		insp = AggregateInspector{tracer, b.Inspector(id)}
	}
	opts = append(opts, WithInspector(insp), WithContext(ctx))
	state := NewNavigationState(opts...)

	res, err := b.Propagator.Propagate(ctx, state, &trk)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String("navigation.outcome", res.Outcome()),
		attribute.Int("navigation.steps", res.Steps),
		attribute.Float64("navigation.path", res.Path),
	)
	return TrackResult{ID: id, Result: res, Trace: tracer.Trace()}
}
