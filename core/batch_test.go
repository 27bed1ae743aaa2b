package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestBatchRunnerMatchesRayScan(t *testing.T) {
	prop, det := newTelescopePropagator(t, PolicyDefault)
	tracks, err := UniformTracks(DefaultUniformTrackConfig())
	if err != nil {
		t.Fatalf("generate tracks: %v", err)
	}

	var inspected atomic.Int64
	runner := &BatchRunner{
		Propagator: prop,
		Workers:    4,
		Inspector: func(int) Inspector {
			return InspectorFunc(func(*NavigationState) { inspected.Add(1) })
		},
	}
	results, err := runner.Run(context.Background(), tracks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != len(tracks) {
		t.Fatalf("results = %d, want %d", len(results), len(tracks))
	}
	for i, res := range results {
		if res.ID != i {
			t.Fatalf("result %d carries id %d", i, res.ID)
		}
		if res.Err != nil || res.Status != StatusOnTarget {
			t.Fatalf("track %d: status %s err %v", i, res.Status, res.Err)
		}
		truth := Trace(RayScan(det, tracks[i], DefaultIntersectConfig()))
		if err := CompareTraces(truth, res.Trace); err != nil {
			t.Fatalf("track %d: %v", i, err)
		}
	}
	if inspected.Load() == 0 {
		t.Fatalf("extra inspector was never called")
	}
}

func TestBatchRunnerCancelled(t *testing.T) {
	prop, _ := newTelescopePropagator(t, PolicyDefault)
	tracks, err := UniformTracks(DefaultUniformTrackConfig())
	if err != nil {
		t.Fatalf("generate tracks: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &BatchRunner{Propagator: prop, Workers: 2}
	if _, err := runner.Run(ctx, tracks); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
