package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/detector-navigator/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navsim.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommandSummarisesOutcomes(t *testing.T) {
	path := writeConfig(t, "workers: 3\nlogging:\n  level: error\n")

	out, err := execute(t, "run", "--config", path, "--print-track", "0")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, ": 100 tracks,") {
		t.Fatalf("summary should cover the default grid:\n%s", out)
	}
	if !regexp.MustCompile(`on_target\s+100`).MatchString(out) {
		t.Fatalf("every default track should reach its target:\n%s", out)
	}
	if !strings.Contains(out, "track 0 transcript:\n#1 volume=0 ") {
		t.Fatalf("missing transcript of track 0:\n%s", out)
	}
}

func TestScanCommandFindsNoMismatches(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: error\npropagation:\n  trust_policy: conservative\n")

	out, err := execute(t, "scan", "--config", path)
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	if !strings.Contains(out, "scanned 100 tracks, 0 mismatches") {
		t.Fatalf("unexpected scan output:\n%s", out)
	}
}

func TestCommandsRejectInvalidConfig(t *testing.T) {
	path := writeConfig(t, "telescope:\n  volumes: 0\n")

	for _, sub := range []string{"run", "scan"} {
		_, err := execute(t, sub, "--config", path)
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", sub, err)
		}
	}
}

func TestRunRecordsBatchMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.Tracks.ThetaSteps, cfg.Tracks.PhiSteps = 2, 3
	cfg.Logging.Level = "error"

	var logs, out bytes.Buffer
	a := &app{cfg: cfg, log: cfg.Logger(&logs)}
	reg := prometheus.NewRegistry()
	if err := a.run(context.Background(), &out, &runOptions{printTrack: -1, registry: reg}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out.String(), "transcript") {
		t.Fatalf("no transcript was requested:\n%s", out.String())
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "propagation_workers":
				if got := m.GetGauge().GetValue(); got != 2 {
					t.Fatalf("propagation_workers = %v, want 2", got)
				}
			case "propagation_batch_duration_seconds":
				if got := m.GetHistogram().GetSampleCount(); got != 1 {
					t.Fatalf("batch duration samples = %d, want 1", got)
				}
			case "propagation_steps":
				if got := m.GetHistogram().GetSampleCount(); got != 6 {
					t.Fatalf("propagation_steps samples = %d, want 6", got)
				}
			}
		}
		found[mf.GetName()] = true
	}
	for _, name := range []string{"propagation_workers", "propagation_batch_duration_seconds", "propagation_steps", "navigator_volume_switches_total"} {
		if !found[name] {
			t.Fatalf("metric %s was not gathered", name)
		}
	}
}
