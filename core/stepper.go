package core

import (
	"fmt"
	"math"
	"strings"
)

// TrustPolicy selects how much trust a step leaves behind.
type TrustPolicy int

const (
	// PolicyDefault lowers trust to high after every step: only the
	// candidate under the cursor needs re-validation.
	PolicyDefault TrustPolicy = iota
	// PolicyConservative lowers trust to fair: every candidate is
	// re-intersected and re-sorted.
	PolicyConservative
)

func (p TrustPolicy) String() string {
	if p == PolicyConservative {
		return "conservative"
	}
	return "default"
}

// ParseTrustPolicy maps a configuration string onto a policy.
func ParseTrustPolicy(s string) (TrustPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "high":
		return PolicyDefault, nil
	case "conservative", "fair":
		return PolicyConservative, nil
	default:
		return PolicyDefault, fmt.Errorf("unknown trust policy %q", s)
	}
}

// LineStepper moves a track along a straight line.
type LineStepper struct {
	// MaxStepSize caps a single step; zero means unlimited.
	MaxStepSize float64
	Policy      TrustPolicy
}

// Step advances trk towards the next navigation candidate, never further
// than remaining, and lowers the state's trust accordingly. It returns the
// length of the step taken.
func (s LineStepper) Step(trk *Track, state *NavigationState, remaining float64) float64 {
	step := state.DistanceToNext()
	if math.IsInf(step, 0) || math.IsNaN(step) {
		step = remaining
	}
	if s.MaxStepSize > 0 && step > s.MaxStepSize {
		step = s.MaxStepSize
	}
	if step > remaining {
		step = remaining
	}
	trk.Advance(step)

	if s.Policy == PolicyConservative {
		state.LowerTrust(TrustFair)
	} else {
		state.LowerTrust(TrustHigh)
	}
	return step
}
