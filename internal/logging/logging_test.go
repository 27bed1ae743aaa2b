package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerCarriesRunAndTrackIDs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	ctx, runID := EnsureRunID(context.Background())
	ctx = ContextWithTrackID(ctx, 7)
	log.With(String("component", "navigator")).Debug(ctx, "volume switch", Uint("volume", 3), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["run_id"] != runID {
		t.Fatalf("run_id = %v, want %s", rec["run_id"], runID)
	}
	if rec["track_id"] != float64(7) {
		t.Fatalf("track_id = %v, want 7", rec["track_id"])
	}
	if rec["component"] != "navigator" || rec["volume"] != float64(3) || rec["error"] != "boom" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestEnsureRunIDIsStable(t *testing.T) {
	ctx, first := EnsureRunID(context.Background())
	_, second := EnsureRunID(ctx)
	if first == "" || first != second {
		t.Fatalf("run IDs = %q/%q, want equal and non-empty", first, second)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger on empty context")
	}
	ctx := ContextWithLogger(context.Background(), nil)
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("expected noop logger to be stored")
	}
}
