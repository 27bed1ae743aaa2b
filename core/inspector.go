package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/model"
)

// Inspector observes the navigation state right before Status and Target
// return. Inspectors must not mutate the state.
type Inspector interface {
	Record(state *NavigationState)
}

// NoopInspector ignores every call. It is the default.
type NoopInspector struct{}

func (NoopInspector) Record(*NavigationState) {}

// InspectorFunc adapts a plain function to the Inspector interface.
type InspectorFunc func(state *NavigationState)

func (f InspectorFunc) Record(state *NavigationState) { f(state) }

// AggregateInspector forwards every call to each of its members in order.
type AggregateInspector []Inspector

func (a AggregateInspector) Record(state *NavigationState) {
	for _, i := range a {
		if i != nil {
			i.Record(state)
		}
	}
}

// LoggingInspector writes every observed state to a logger at debug level.
type LoggingInspector struct {
	Ctx context.Context
	Log logging.Logger
}

func (l LoggingInspector) Record(state *NavigationState) {
	if l.Log == nil {
		return
	}
	ctx := l.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	l.Log.Debug(ctx, "navigation state",
		logging.Uint("volume", state.volume),
		logging.String("status", state.status.String()),
		logging.String("trust", state.trust.String()),
		logging.Uint("current", state.current),
		logging.Float("distance", state.distance),
	)
}

// TraceEntry is one object the navigator reported as reached.
type TraceEntry struct {
	Volume uint32
	Kind   model.ObjectKind
	Index  uint32
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%s %d in volume %d", e.Kind, e.Index, e.Volume)
}

// ObjectTracer collects every surface and portal the track lands on.
// Consecutive reports of the same object are recorded once.
type ObjectTracer struct {
	entries []TraceEntry
}

func (t *ObjectTracer) Record(state *NavigationState) {
	var kind model.ObjectKind
	switch state.status {
	case StatusOnSurface:
		kind = model.KindSurface
	case StatusOnPortal:
		kind = model.KindPortal
	default:
		return
	}
	e := TraceEntry{Volume: state.onVolume, Kind: kind, Index: state.current}
	if n := len(t.entries); n > 0 && t.entries[n-1] == e {
		return
	}
	t.entries = append(t.entries, e)
}

// Trace returns the recorded objects in crossing order.
func (t *ObjectTracer) Trace() []TraceEntry {
	return append([]TraceEntry(nil), t.entries...)
}

// Reset forgets all recorded objects.
func (t *ObjectTracer) Reset() { t.entries = t.entries[:0] }

// PrintInspector keeps a human-readable transcript of every call.
type PrintInspector struct {
	b     strings.Builder
	calls int
}

func (p *PrintInspector) Record(state *NavigationState) {
	p.calls++
	fmt.Fprintf(&p.b, "#%d volume=%s status=%s trust=%s",
		p.calls, indexString(state.volume), state.status, state.trust)
	if state.current != model.InvalidIndex {
		fmt.Fprintf(&p.b, " current=%d", state.current)
	}
	fmt.Fprintf(&p.b, " distance=%.6g surfaces=%d/%d portals=%d/%d\n",
		state.distance,
		state.surfaces.next, len(state.surfaces.candidates),
		state.portals.next, len(state.portals.candidates))
}

// String returns the transcript recorded so far.
func (p *PrintInspector) String() string { return p.b.String() }

func indexString(i uint32) string {
	if i == model.InvalidIndex {
		return "invalid"
	}
	return fmt.Sprintf("%d", i)
}
