package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/detector-navigator/model"
)

func TestLineStepperStepSize(t *testing.T) {
	tests := []struct {
		name      string
		distance  float64
		maxStep   float64
		remaining float64
		want      float64
	}{
		{name: "distance to next", distance: 5, remaining: 100, want: 5},
		{name: "capped by max step", distance: 5, maxStep: 2, remaining: 100, want: 2},
		{name: "capped by remaining path", distance: 5, remaining: 1.5, want: 1.5},
		{name: "no candidate", distance: math.Inf(1), maxStep: 3, remaining: 100, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewNavigationState()
			state.distance = tt.distance
			trk := NewTrack(model.Vec3{}, model.Vec3{Z: 1})

			got := LineStepper{MaxStepSize: tt.maxStep}.Step(&trk, state, tt.remaining)
			if got != tt.want {
				t.Fatalf("step = %v, want %v", got, tt.want)
			}
			if trk.Pos.Z != tt.want || trk.Path != tt.want {
				t.Fatalf("track at z=%v path=%v, want %v", trk.Pos.Z, trk.Path, tt.want)
			}
		})
	}
}

func TestLineStepperOnlyLowersTrust(t *testing.T) {
	tests := []struct {
		policy TrustPolicy
		from   TrustLevel
		want   TrustLevel
	}{
		{policy: PolicyDefault, from: TrustFull, want: TrustHigh},
		{policy: PolicyConservative, from: TrustFull, want: TrustFair},
		{policy: PolicyDefault, from: TrustNone, want: TrustNone},
		{policy: PolicyConservative, from: TrustNone, want: TrustNone},
	}
	for _, tt := range tests {
		state := NewNavigationState()
		state.trust = tt.from
		state.distance = 1
		trk := NewTrack(model.Vec3{}, model.Vec3{Z: 1})
		LineStepper{Policy: tt.policy}.Step(&trk, state, 10)
		if state.Trust() != tt.want {
			t.Fatalf("%s policy from %s: trust = %s, want %s", tt.policy, tt.from, state.Trust(), tt.want)
		}
	}
}

func TestParseTrustPolicy(t *testing.T) {
	for in, want := range map[string]TrustPolicy{
		"":             PolicyDefault,
		"default":      PolicyDefault,
		"HIGH":         PolicyDefault,
		"conservative": PolicyConservative,
		" fair ":       PolicyConservative,
	} {
		got, err := ParseTrustPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseTrustPolicy(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseTrustPolicy("reckless"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
