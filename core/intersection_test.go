package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/detector-navigator/model"
)

func singleObject(tf model.Transform, mask model.Mask) (model.Object, []model.Transform, []model.Mask) {
	var store model.ObjectStore
	store.Add(tf, mask, 3)
	return store.ObjectAt(0), store.Transforms(), store.Masks()
}

func TestIntersectPlane(t *testing.T) {
	obj, tfs, masks := singleObject(zPlane(10), model.Rectangle{HalfX: 2, HalfY: 2})
	cfg := DefaultIntersectConfig()

	tests := []struct {
		name   string
		trk    Track
		status IntersectionStatus
		path   float64
	}{
		{name: "ahead inside", trk: NewTrack(model.Vec3{}, model.Vec3{Z: 1}), status: Inside, path: 10},
		{name: "ahead outside mask", trk: NewTrack(model.Vec3{X: 3}, model.Vec3{Z: 1}), status: Outside, path: 10},
		{name: "behind", trk: NewTrack(model.Vec3{Z: 11}, model.Vec3{Z: 1}), status: Outside, path: -1},
		{name: "within overstep", trk: NewTrack(model.Vec3{Z: 10.00005}, model.Vec3{Z: 1}), status: Inside, path: -0.00005},
		{name: "parallel", trk: NewTrack(model.Vec3{}, model.Vec3{X: 1}), status: Missed, path: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sfi, links := Intersect(tt.trk, obj, tfs, masks, cfg)
			if sfi.Status != tt.status {
				t.Fatalf("status = %s, want %s", sfi.Status, tt.status)
			}
			if math.IsInf(tt.path, 1) {
				if !math.IsInf(sfi.Path, 1) {
					t.Fatalf("path = %v, want +Inf", sfi.Path)
				}
			} else if math.Abs(sfi.Path-tt.path) > 1e-9 {
				t.Fatalf("path = %v, want %v", sfi.Path, tt.path)
			}
			if len(links) != 1 || links[0] != 3 || sfi.Link != 3 {
				t.Fatalf("links = %v (primary %d), want [3]", links, sfi.Link)
			}
		})
	}
}

func TestIntersectRing(t *testing.T) {
	obj, tfs, masks := singleObject(zPlane(5), model.Ring{InnerR: 1, OuterR: 4})
	cfg := DefaultIntersectConfig()

	if sfi, _ := Intersect(NewTrack(model.Vec3{X: 2}, model.Vec3{Z: 1}), obj, tfs, masks, cfg); sfi.Status != Inside {
		t.Fatalf("status = %s, want inside", sfi.Status)
	}
	if sfi, _ := Intersect(NewTrack(model.Vec3{}, model.Vec3{Z: 1}), obj, tfs, masks, cfg); sfi.Status != Outside {
		t.Fatalf("hole: status = %s, want outside", sfi.Status)
	}
}

func TestIntersectCylinder(t *testing.T) {
	obj, tfs, masks := singleObject(model.IdentityTransform(), model.Cylinder{Radius: 10, HalfZ: 50})
	cfg := DefaultIntersectConfig()

	tests := []struct {
		name   string
		trk    Track
		status IntersectionStatus
		path   float64
	}{
		{name: "from axis", trk: NewTrack(model.Vec3{}, model.Vec3{X: 1}), status: Inside, path: 10},
		{name: "from outside", trk: NewTrack(model.Vec3{X: -20}, model.Vec3{X: 1}), status: Inside, path: 10},
		{name: "diagonal", trk: NewTrack(model.Vec3{}, model.Vec3{X: 1, Z: 1}), status: Inside, path: 10 * math.Sqrt2},
		{name: "beyond half length", trk: NewTrack(model.Vec3{}, model.Vec3{X: 1, Z: 10}), status: Outside, path: math.Sqrt(10100)},
		{name: "along axis", trk: NewTrack(model.Vec3{}, model.Vec3{Z: 1}), status: Missed, path: math.Inf(1)},
		{name: "passing by", trk: NewTrack(model.Vec3{X: -20, Y: 15}, model.Vec3{X: 1}), status: Missed, path: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sfi, _ := Intersect(tt.trk, obj, tfs, masks, cfg)
			if sfi.Status != tt.status {
				t.Fatalf("status = %s, want %s", sfi.Status, tt.status)
			}
			if math.IsInf(tt.path, 1) {
				return
			}
			if math.Abs(sfi.Path-tt.path) > 1e-9 {
				t.Fatalf("path = %v, want %v", sfi.Path, tt.path)
			}
		})
	}
}

func TestIntersectionBefore(t *testing.T) {
	a := Intersection{Index: 2, Path: 1}
	b := Intersection{Index: 1, Path: 1}
	c := Intersection{Index: 0, Path: 2}
	if !b.Before(a) || a.Before(b) {
		t.Fatalf("equal paths should order by index")
	}
	if !a.Before(c) || c.Before(a) {
		t.Fatalf("shorter path should come first")
	}
}

func TestKernelLifecycle(t *testing.T) {
	k := newKernel(model.KindPortal)
	if !k.Empty() || !k.Exhausted() || k.Link() != model.InvalidIndex {
		t.Fatalf("new kernel should be empty, exhausted and unlinked")
	}
	if _, ok := k.Next(); ok {
		t.Fatalf("empty kernel must not yield a candidate")
	}

	k.candidates = append(k.candidates,
		Intersection{Index: 1, Path: 4, Link: 2},
		Intersection{Index: 0, Path: 1, Link: 5},
	)
	k.sort()
	k.link = 5
	if c, ok := k.Next(); !ok || c.Index != 0 {
		t.Fatalf("next = %+v, want index 0", c)
	}
	if k.towards() != StatusTowardsPortal || k.on() != StatusOnPortal {
		t.Fatalf("portal kernel should map to portal statuses")
	}

	k.exhaust()
	if !k.Exhausted() || k.Empty() {
		t.Fatalf("exhausted kernel keeps its candidates")
	}

	k.Clear()
	if !k.Empty() || !k.Exhausted() || k.Cursor() != 0 || k.Link() != model.InvalidIndex {
		t.Fatalf("clear should drop candidates, reset the cursor and forget the link")
	}
}
