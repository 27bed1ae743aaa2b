package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/model"
)

var (
	// ErrPathLimit is returned when the track travels further than the
	// configured path limit.
	ErrPathLimit = errors.New("path limit reached")
	// ErrStepLimit is returned when the step budget runs out.
	ErrStepLimit = errors.New("step limit reached")
	// ErrStuck is returned when neither kernel holds a reachable candidate.
	ErrStuck = errors.New("navigation stuck: no reachable surface or portal")
	// ErrNoVolume is returned when the track is not inside any volume.
	ErrNoVolume = errors.New("track outside of detector")
)

// maxStatusAttempts bounds the Status calls needed to settle one sample: a
// volume switch, a kernel rebuild and one spare.
const maxStatusAttempts = 4

// PropagationConfig bounds a propagation.
type PropagationConfig struct {
	// PathLimit aborts the track after this much path; zero means no limit.
	PathLimit float64
	// MaxSteps aborts the track after this many steps; zero means no limit.
	MaxSteps int
}

// DefaultPropagationConfig returns limits generous enough for the
// telescope geometries used in tests and the CLI.
func DefaultPropagationConfig() PropagationConfig {
	return PropagationConfig{PathLimit: 1e4, MaxSteps: 10000}
}

// Result summarises one propagation.
type Result struct {
	Status   Status
	Steps    int
	Path     float64
	Position model.Vec3
	Err      error
}

// Outcome classifies the result for metrics and reporting.
func (r Result) Outcome() string {
	switch {
	case r.Err == nil && r.Status == StatusOnTarget:
		return "on_target"
	case errors.Is(r.Err, ErrPathLimit):
		return "path_limit"
	case errors.Is(r.Err, ErrStepLimit):
		return "step_limit"
	case errors.Is(r.Err, ErrStuck):
		return "stuck"
	case errors.Is(r.Err, ErrNoVolume):
		return "no_volume"
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "aborted"
	}
}

// Propagator drives a navigator and a line stepper until the track leaves
// the detector or one of the aborters fires. It is the only component that
// sets the aborted and on_target status values.
type Propagator struct {
	nav     *Navigator
	stepper LineStepper
	cfg     PropagationConfig
	metrics PropagationMetrics
	log     logging.Logger
}

// PropagatorOption configures a Propagator.
type PropagatorOption func(*Propagator)

// WithPropagationConfig overrides the propagation limits.
func WithPropagationConfig(cfg PropagationConfig) PropagatorOption {
	return func(p *Propagator) { p.cfg = cfg }
}

// WithPropagationMetrics plugs a metrics recorder.
func WithPropagationMetrics(m PropagationMetrics) PropagatorOption {
	return func(p *Propagator) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithPropagationLogger plugs a structured logger.
func WithPropagationLogger(l logging.Logger) PropagatorOption {
	return func(p *Propagator) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPropagator wires a navigator and stepper into a driving loop.
func NewPropagator(nav *Navigator, stepper LineStepper, opts ...PropagatorOption) *Propagator {
	p := &Propagator{
		nav:     nav,
		stepper: stepper,
		cfg:     DefaultPropagationConfig(),
		metrics: noopMetrics{},
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propagate moves trk through the detector, updating state in place. A
// track leaving the world through an outer portal ends on_target with a
// nil error; every other stop aborts the state and returns the reason.
func (p *Propagator) Propagate(ctx context.Context, state *NavigationState, trk *Track) (Result, error) {
	steps := 0
	err := p.evaluate(state, *trk)
	for err == nil && !state.Status().Terminal() {
		if err = ctx.Err(); err != nil {
			break
		}
		if p.cfg.MaxSteps > 0 && steps >= p.cfg.MaxSteps {
			err = fmt.Errorf("%w after %d steps", ErrStepLimit, steps)
			break
		}
		remaining := math.Inf(1)
		if p.cfg.PathLimit > 0 {
			remaining = p.cfg.PathLimit - trk.Path
			if remaining <= 0 {
				err = fmt.Errorf("%w at path %.6g", ErrPathLimit, trk.Path)
				break
			}
		}

		p.nav.Target(state, *trk)
		if math.IsInf(state.DistanceToNext(), 1) && math.IsInf(remaining, 1) {
			err = ErrStuck
			break
		}
		p.stepper.Step(trk, state, remaining)
		steps++
		err = p.evaluate(state, *trk)
	}

	if err != nil {
		state.Abort()
		p.log.Warn(ctx, "propagation aborted",
			logging.Err(err),
			logging.Int("steps", steps),
			logging.Float("path", trk.Path),
			logging.Uint("volume", state.VolumeIndex()),
		)
	}

	res := Result{
		Status:   state.Status(),
		Steps:    steps,
		Path:     trk.Path,
		Position: trk.Pos,
		Err:      err,
	}
	p.metrics.ObserveSteps(steps)
	p.metrics.IncTrack(res.Outcome())
	return res, err
}

// evaluate calls Status until the state settles: after a volume switch or
// an exhausted kernel the navigator needs a second call to rebuild.
func (p *Propagator) evaluate(state *NavigationState, trk Track) error {
	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		from := state.VolumeIndex()
		p.nav.Status(state, trk)

		if state.VolumeIndex() == model.InvalidIndex {
			if state.Status() == StatusOnPortal && from != model.InvalidIndex {
				state.Complete()
				return nil
			}
			return ErrNoVolume
		}
		if state.Trust() != TrustNone {
			return nil
		}
		if state.Status() != StatusOnPortal && state.SurfaceKernel().Empty() && state.PortalKernel().Empty() {
			return ErrStuck
		}
	}
	return ErrStuck
}
