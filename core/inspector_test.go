package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/model"
)

func TestObjectTracerRecordsReachedObjects(t *testing.T) {
	tracer := &ObjectTracer{}
	state := NewNavigationState()
	state.volume = 2
	state.onVolume = 2

	state.status = StatusTowardsSurface
	tracer.Record(state)

	state.status = StatusOnSurface
	state.current = 4
	tracer.Record(state)
	tracer.Record(state)

	state.status = StatusOnPortal
	state.current = 1
	tracer.Record(state)

	want := []TraceEntry{
		{Volume: 2, Kind: model.KindSurface, Index: 4},
		{Volume: 2, Kind: model.KindPortal, Index: 1},
	}
	got := tracer.Trace()
	if len(got) != len(want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %v, want %v", i, got[i], want[i])
		}
	}

	tracer.Reset()
	if len(tracer.Trace()) != 0 {
		t.Fatalf("reset should clear the trace")
	}
}

func TestAggregateInspectorFansOut(t *testing.T) {
	var first, second int
	agg := AggregateInspector{
		InspectorFunc(func(*NavigationState) { first++ }),
		nil,
		InspectorFunc(func(*NavigationState) { second++ }),
	}
	agg.Record(NewNavigationState())
	if first != 1 || second != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", first, second)
	}
}

func TestPrintInspectorTranscript(t *testing.T) {
	printer := &PrintInspector{}
	nav := NewNavigator(twoSurfaceVolume())
	state := NewNavigationState(WithInspector(printer))
	trk := NewTrack(model.Vec3{}, model.Vec3{Z: 1})

	nav.Status(state, trk)
	trk.Advance(state.DistanceToNext())
	state.LowerTrust(TrustHigh)
	nav.Status(state, trk)

	lines := strings.Split(strings.TrimSpace(printer.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("transcript has %d lines, want 2:\n%s", len(lines), printer.String())
	}
	if !strings.Contains(lines[0], "status=towards_surface") || !strings.Contains(lines[0], "trust=full") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "status=on_surface") || !strings.Contains(lines[1], "current=0") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestLoggingInspectorWritesDebugRecords(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "debug", Format: "json", Output: &buf})
	ctx := logging.ContextWithTrackID(context.Background(), 3)

	nav := NewNavigator(twoSurfaceVolume())
	state := NewNavigationState(WithInspector(LoggingInspector{Ctx: ctx, Log: log}))
	nav.Status(state, NewTrack(model.Vec3{}, model.Vec3{Z: 1}))

	out := buf.String()
	for _, want := range []string{`"msg":"navigation state"`, `"status":"towards_surface"`, `"track_id":3`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %s", out, want)
		}
	}
}
