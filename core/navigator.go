package core

import (
	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/model"
)

// Geometry is the read-only detector view the navigator works against.
// *kb.Detector implements it.
type Geometry interface {
	// IndexedVolume returns the volume with the given index, or nil.
	IndexedVolume(index uint32) *model.Volume
	// VolumeAt returns the volume containing p, or nil.
	VolumeAt(p model.Vec3) *model.Volume
}

// Navigator determines the next surface or portal a track will reach.
//
// It follows a status()/target() call sequence: Status establishes
// authoritative information for the current sample, Target refines it
// cheaply between full evaluations. All mutable data lives in the
// NavigationState, so one Navigator can serve any number of trajectories
// concurrently as long as each owns its state.
type Navigator struct {
	geo     Geometry
	cfg     IntersectConfig
	metrics NavigationMetrics
	log     logging.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithIntersectConfig overrides the intersection tolerances.
func WithIntersectConfig(cfg IntersectConfig) Option {
	return func(n *Navigator) { n.cfg = cfg }
}

// WithMetrics plugs a metrics recorder.
func WithMetrics(m NavigationMetrics) Option {
	return func(n *Navigator) {
		if m != nil {
			n.metrics = m
		}
	}
}

// WithLogger plugs a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.log = l
		}
	}
}

// NewNavigator constructs a navigator over geo.
func NewNavigator(geo Geometry, opts ...Option) *Navigator {
	n := &Navigator{
		geo:     geo,
		cfg:     DefaultIntersectConfig(),
		metrics: noopMetrics{},
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Status establishes the navigation information for the current sample.
//
// Without a volume or without trust the kernels are rebuilt from scratch;
// otherwise the surface kernel is refined first and the portal kernel only
// once the surfaces are exhausted. Reaching a portal switches the volume.
func (n *Navigator) Status(state *NavigationState, trk Track) {
	defer state.inspector.Record(state)
	n.metrics.IncNavigatorCall("status")

	vol, wasUnset := n.resolveVolume(state, trk)
	if vol == nil {
		return
	}

	if wasUnset || state.trust == TrustNone {
		state.clearKernels()
		state.status = StatusUnknown
		state.current = model.InvalidIndex
		n.initializeKernel(state, &state.surfaces, trk, vol)
		if state.surfaces.Empty() {
			n.initializeKernel(state, &state.portals, trk, vol)
			n.checkVolumeSwitch(state)
		}
		return
	}

	if !state.surfaces.Exhausted() && n.updateKernel(state, &state.surfaces, trk, vol) {
		return
	}

	n.updateKernel(state, &state.portals, trk, vol)
	n.checkVolumeSwitch(state)
}

// Target refines the next candidate between Status calls. It does nothing
// while trust is full and only works at high trust; lower levels are left
// for the next Status call.
func (n *Navigator) Target(state *NavigationState, trk Track) {
	defer state.inspector.Record(state)
	if state.trust == TrustFull {
		return
	}
	n.metrics.IncNavigatorCall("target")

	vol, _ := n.resolveVolume(state, trk)
	if vol == nil || state.trust != TrustHigh {
		return
	}

	if !state.surfaces.Empty() {
		if state.surfaces.Exhausted() {
			state.surfaces.Clear()
			state.trust = TrustNone
			n.initializeKernel(state, &state.portals, trk, vol)
			return
		}
		if n.updateKernel(state, &state.surfaces, trk, vol) {
			return
		}
	}
	n.updateKernel(state, &state.portals, trk, vol)
}

// resolveVolume returns the current volume, from the cached index when set
// or through a global point lookup otherwise. The second result reports
// whether the cached index was unusable.
func (n *Navigator) resolveVolume(state *NavigationState, trk Track) (*model.Volume, bool) {
	var vol *model.Volume
	wasUnset := state.volume == model.InvalidIndex
	if !wasUnset {
		vol = n.geo.IndexedVolume(state.volume)
	}
	if vol == nil {
		wasUnset = true
		vol = n.geo.VolumeAt(trk.Pos)
	}
	if vol == nil {
		state.volume = model.InvalidIndex
		state.clearKernels()
		state.status = StatusUnknown
		state.trust = TrustNone
		return nil, true
	}
	state.volume = vol.Index()
	return vol, wasUnset
}

// initializeKernel intersects every object of the kernel's kind and keeps
// the ones the track can reach.
func (n *Navigator) initializeKernel(state *NavigationState, k *Kernel, trk Track, vol *model.Volume) {
	k.Clear()
	n.metrics.IncKernelInitialization(k.kind.String())

	store := vol.Objects(k.kind)
	size := store.Size()
	if size == 0 {
		return
	}
	if cap(k.candidates) < size {
		k.candidates = make([]Intersection, 0, size)
	}

	transforms, masks := store.Transforms(), store.Masks()
	for i := 0; i < size; i++ {
		sfi := n.intersect(trk, store.ObjectAt(uint32(i)), transforms, masks)
		if sfi.Status != Inside || n.isEntryPortal(state, k, sfi) {
			continue
		}
		k.candidates = append(k.candidates, sfi)
	}
	n.sortAndSet(state, k)
}

// updateKernel refines a populated kernel according to the trust level.
// It reports false once the kernel is exhausted, leaving trust at none.
func (n *Navigator) updateKernel(state *NavigationState, k *Kernel, trk Track, vol *model.Volume) bool {
	if k.Empty() {
		n.initializeKernel(state, k, trk, vol)
		if !k.Empty() {
			return true
		}
		state.trust = TrustNone
		return false
	}

	store := vol.Objects(k.kind)
	transforms, masks := store.Transforms(), store.Masks()

	switch {
	case state.trust >= TrustHigh:
		for !k.Exhausted() {
			si := k.candidates[k.next].Index
			sfi := n.intersect(trk, store.ObjectAt(si), transforms, masks)
			if sfi.Status != Inside {
				k.next++
				continue
			}
			k.candidates[k.next] = sfi
			k.link = sfi.Link
			state.distance = sfi.Path
			if sfi.Path < state.tol {
				state.setOn(k, sfi)
				// Portals stay under the cursor: the caller switches volume.
				if k.kind == model.KindSurface {
					k.next++
					state.trust = TrustHigh
				}
			} else {
				state.setTowards(k)
				state.trust = TrustFull
			}
			return true
		}
	case state.trust == TrustFair:
		kept := k.candidates[:0]
		for _, c := range k.candidates {
			sfi := n.intersect(trk, store.ObjectAt(c.Index), transforms, masks)
			if sfi.Status == Inside {
				kept = append(kept, sfi)
			}
		}
		k.candidates = kept
		n.sortAndSet(state, k)
		if state.trust >= TrustHigh && !k.Empty() {
			return true
		}
	}

	k.exhaust()
	state.trust = TrustNone
	n.metrics.IncKernelExhaustion(k.kind.String())
	n.log.Debug(state.ctx, "navigation kernel exhausted",
		logging.String("kind", k.kind.String()),
		logging.Uint("volume", state.volume),
	)
	return false
}

// sortAndSet orders the candidates, points the cursor at the nearest one
// and derives status, distance and trust from it. A surface the track is
// already on is consumed, as in the high trust update.
func (n *Navigator) sortAndSet(state *NavigationState, k *Kernel) {
	if k.Empty() {
		k.next = 0
		return
	}
	k.sort()
	k.next = 0
	lead := k.candidates[0]
	k.link = lead.Link
	state.distance = lead.Path
	if lead.Path < state.tol {
		state.setOn(k, lead)
		if k.kind == model.KindSurface {
			k.next++
		}
		state.trust = TrustHigh
		return
	}
	state.setTowards(k)
	state.trust = TrustFull
}

// checkVolumeSwitch moves the state into the volume behind the portal the
// track is on.
func (n *Navigator) checkVolumeSwitch(state *NavigationState) {
	if state.status != StatusOnPortal || state.portals.Exhausted() {
		return
	}
	next := state.portals.Link()

	n.metrics.IncVolumeSwitch()
	n.log.Debug(state.ctx, "volume switch",
		logging.Uint("from", state.volume),
		logging.Uint("to", next),
		logging.Uint("portal", state.current),
	)

	state.previous = state.volume
	state.volume = next
	state.clearKernels()
	state.trust = TrustNone
}

// isEntryPortal reports whether sfi is the portal the track just came
// through: it sits at the track position and leads back to the volume that
// was left.
func (n *Navigator) isEntryPortal(state *NavigationState, k *Kernel, sfi Intersection) bool {
	return k.kind == model.KindPortal &&
		state.previous != model.InvalidIndex &&
		sfi.Link == state.previous &&
		sfi.Path < state.tol
}

func (n *Navigator) intersect(trk Track, obj model.Object, transforms []model.Transform, masks []model.Mask) Intersection {
	sfi, _ := Intersect(trk, obj, transforms, masks, n.cfg)
	return sfi
}
