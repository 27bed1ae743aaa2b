package core

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signalsfoundry/detector-navigator/model"
)

// ErrTraceMismatch is returned by CompareTraces when a navigation trace
// deviates from the ray scan.
var ErrTraceMismatch = errors.New("navigation trace does not match ray scan")

// scanBackoff is how far before a portal crossing the owning volume is
// probed.
const scanBackoff = 1e-6

// VolumeLister exposes every volume of a detector. *kb.Detector
// implements it.
type VolumeLister interface {
	Volumes() []*model.Volume
}

// ScanHit is one object crossed by a straight ray.
type ScanHit struct {
	TraceEntry
	Path float64
	Link uint32
}

// RayScan intersects every object of every volume with the straight line
// starting at trk and returns the crossings in path order, up to and
// including the portal that leaves the world. It is the brute-force truth
// the navigator is checked against.
func RayScan(geo VolumeLister, trk Track, cfg IntersectConfig) []ScanHit {
	var hits []ScanHit
	for _, vol := range geo.Volumes() {
		for _, kind := range []model.ObjectKind{model.KindSurface, model.KindPortal} {
			store := vol.Objects(kind)
			transforms, masks := store.Transforms(), store.Masks()
			for i := 0; i < store.Size(); i++ {
				sfi, _ := Intersect(trk, store.ObjectAt(uint32(i)), transforms, masks, cfg)
				if sfi.Status != Inside || sfi.Path < 0 {
					continue
				}
				// A shared boundary is owned by the volume the ray leaves.
				if kind == model.KindPortal && !vol.Bounds.Contains(trk.Pos.At(trk.Dir, sfi.Path-scanBackoff)) {
					continue
				}
				hits = append(hits, ScanHit{
					TraceEntry: TraceEntry{Volume: vol.Index(), Kind: kind, Index: sfi.Index},
					Path:       sfi.Path,
					Link:       sfi.Link,
				})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Path < hits[j].Path })
	for i, h := range hits {
		if h.Kind == model.KindPortal && h.Link == model.InvalidIndex {
			return hits[:i+1]
		}
	}
	return hits
}

// Trace strips the scan down to the entries an ObjectTracer records.
func Trace(hits []ScanHit) []TraceEntry {
	out := make([]TraceEntry, len(hits))
	for i, h := range hits {
		out[i] = h.TraceEntry
	}
	return out
}

// CompareTraces checks a navigation trace against the ray scan truth.
func CompareTraces(truth, nav []TraceEntry) error {
	n := len(truth)
	if len(nav) < n {
		n = len(nav)
	}
	for i := 0; i < n; i++ {
		if truth[i] != nav[i] {
			return fmt.Errorf("%w: entry %d: scan %s, navigation %s", ErrTraceMismatch, i, truth[i], nav[i])
		}
	}
	if len(truth) != len(nav) {
		return fmt.Errorf("%w: scan has %d entries, navigation %d", ErrTraceMismatch, len(truth), len(nav))
	}
	return nil
}
