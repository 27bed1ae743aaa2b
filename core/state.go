package core

import (
	"context"
	"math"

	"github.com/signalsfoundry/detector-navigator/model"
)

// Status is the navigation status flag.
type Status int

const (
	StatusUnknown Status = iota
	StatusAborted
	StatusOnTarget
	StatusTowardsSurface
	StatusOnSurface
	StatusTowardsPortal
	StatusOnPortal
)

func (s Status) String() string {
	switch s {
	case StatusAborted:
		return "aborted"
	case StatusOnTarget:
		return "on_target"
	case StatusTowardsSurface:
		return "towards_surface"
	case StatusOnSurface:
		return "on_surface"
	case StatusTowardsPortal:
		return "towards_portal"
	case StatusOnPortal:
		return "on_portal"
	default:
		return "unknown"
	}
}

// Terminal reports whether the driver must stop calling the navigator.
func (s Status) Terminal() bool {
	return s == StatusAborted || s == StatusOnTarget
}

// TrustLevel governs how much work the next update has to do. Levels are
// ordered: none < fair < high < full.
type TrustLevel int

const (
	// TrustNone re-scans every object of the volume.
	TrustNone TrustLevel = iota
	// TrustFair re-intersects and re-sorts the known candidates.
	TrustFair
	// TrustHigh re-validates the candidate under the cursor only.
	TrustHigh
	// TrustFull keeps the cached candidate as is.
	TrustFull
)

func (t TrustLevel) String() string {
	switch t {
	case TrustFair:
		return "fair"
	case TrustHigh:
		return "high"
	case TrustFull:
		return "full"
	default:
		return "none"
	}
}

// DefaultTolerance is the on-object tolerance used when none is configured.
const DefaultTolerance = 1e-5

// noCopy makes go vet's copylocks check flag NavigationState copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// NavigationState caches the navigation stream of one trajectory. It is
// created once per trajectory, mutated in place by Navigator.Status and
// Navigator.Target, and must not be copied or shared between goroutines.
type NavigationState struct {
	noCopy noCopy

	volume   uint32
	previous uint32
	surfaces Kernel
	portals  Kernel

	current  uint32
	onVolume uint32
	distance float64
	tol      float64

	status Status
	trust  TrustLevel

	inspector Inspector
	ctx       context.Context
}

// StateOption configures a NavigationState.
type StateOption func(*NavigationState)

// WithTolerance sets the on-object tolerance.
func WithTolerance(tol float64) StateOption {
	return func(s *NavigationState) { s.tol = tol }
}

// WithInspector plugs an inspector that sees the state before every
// Status/Target return.
func WithInspector(i Inspector) StateOption {
	return func(s *NavigationState) {
		if i != nil {
			s.inspector = i
		}
	}
}

// WithContext sets the context the navigator logs with, so that run and
// track identifiers reach its debug output.
func WithContext(ctx context.Context) StateOption {
	return func(s *NavigationState) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithStartVolume seeds the volume index so the first Status call skips
// the global point lookup.
func WithStartVolume(index uint32) StateOption {
	return func(s *NavigationState) { s.volume = index }
}

// NewNavigationState returns a fresh state: unknown status, no trust, no
// volume.
func NewNavigationState(opts ...StateOption) *NavigationState {
	s := &NavigationState{
		volume:    model.InvalidIndex,
		previous:  model.InvalidIndex,
		surfaces:  newKernel(model.KindSurface),
		portals:   newKernel(model.KindPortal),
		current:   model.InvalidIndex,
		onVolume:  model.InvalidIndex,
		distance:  math.Inf(1),
		tol:       DefaultTolerance,
		status:    StatusUnknown,
		trust:     TrustNone,
		inspector: NoopInspector{},
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NavigationState) VolumeIndex() uint32     { return s.volume }
func (s *NavigationState) Status() Status          { return s.status }
func (s *NavigationState) Trust() TrustLevel       { return s.trust }
func (s *NavigationState) DistanceToNext() float64 { return s.distance }
func (s *NavigationState) Tolerance() float64      { return s.tol }

// CurrentIndex is the index of the object the track is on, or
// model.InvalidIndex when it is between objects.
func (s *NavigationState) CurrentIndex() uint32 { return s.current }

// OnVolume is the volume owning the object at CurrentIndex. After a
// portal crossing it still names the volume that was left.
func (s *NavigationState) OnVolume() uint32 { return s.onVolume }

// PreviousVolume is the volume left by the most recent portal crossing.
func (s *NavigationState) PreviousVolume() uint32 { return s.previous }

func (s *NavigationState) SurfaceKernel() *Kernel { return &s.surfaces }
func (s *NavigationState) PortalKernel() *Kernel  { return &s.portals }

// LowerTrust drops the trust level to t. It never raises trust; the
// stepping layer uses it when its step invalidates cached assumptions.
func (s *NavigationState) LowerTrust(t TrustLevel) {
	if t < s.trust {
		s.trust = t
	}
}

// Abort marks the trajectory as aborted. Only the driving layer calls it.
func (s *NavigationState) Abort() { s.status = StatusAborted }

// Complete marks the trajectory as having reached its target. Only the
// driving layer calls it.
func (s *NavigationState) Complete() { s.status = StatusOnTarget }

func (s *NavigationState) setOn(k *Kernel, c Intersection) {
	s.status = k.on()
	s.current = c.Index
	s.onVolume = s.volume
}

func (s *NavigationState) setTowards(k *Kernel) {
	s.status = k.towards()
	s.current = model.InvalidIndex
}

func (s *NavigationState) clearKernels() {
	s.surfaces.Clear()
	s.portals.Clear()
}
