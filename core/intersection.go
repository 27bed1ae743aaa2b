package core

import (
	"math"

	"github.com/signalsfoundry/detector-navigator/model"
)

// IntersectionStatus is the validity of an intersection attempt.
type IntersectionStatus int

const (
	// Missed means the track never reaches the object's geometry.
	Missed IntersectionStatus = iota
	// Outside means the geometry is reached outside the mask or behind the
	// track.
	Outside
	// Inside means the object is a valid candidate.
	Inside
)

func (s IntersectionStatus) String() string {
	switch s {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	default:
		return "missed"
	}
}

// Intersection is the result of intersecting a track with one object. It
// is the navigator's candidate type.
type Intersection struct {
	Index  uint32
	Path   float64
	Status IntersectionStatus
	Link   uint32
	Local  model.Vec3
}

// Before orders candidates by path, breaking ties by object index so the
// original object order is kept.
func (i Intersection) Before(other Intersection) bool {
	if i.Path != other.Path {
		return i.Path < other.Path
	}
	return i.Index < other.Index
}

// IntersectConfig tunes the intersection primitive.
type IntersectConfig struct {
	// OverstepTolerance is the (negative) path down to which an object
	// behind the track still counts as reachable.
	OverstepTolerance float64
	// MaskTolerance is the slack applied to mask boundaries.
	MaskTolerance float64
}

// DefaultIntersectConfig returns the tolerances used when none are given.
func DefaultIntersectConfig() IntersectConfig {
	return IntersectConfig{
		OverstepTolerance: -1e-4,
		MaskTolerance:     1e-5,
	}
}

const parallelEpsilon = 1e-12

// Intersect computes the intersection of the track with obj, whose
// transform and mask live in transforms and masks. It returns the
// intersection together with the object's link list.
func Intersect(trk Track, obj model.Object, transforms []model.Transform, masks []model.Mask, cfg IntersectConfig) (Intersection, []uint32) {
	sfi := Intersection{
		Index:  obj.Index,
		Path:   math.Inf(1),
		Status: Missed,
		Link:   obj.PrimaryLink(),
	}
	tf := transforms[obj.Transform]
	mask := masks[obj.Mask]

	var ok bool
	switch m := mask.(type) {
	case model.Cylinder:
		sfi.Path, sfi.Local, ok = intersectCylinder(trk, tf, m, cfg.OverstepTolerance)
	default:
		sfi.Path, sfi.Local, ok = intersectPlane(trk, tf)
	}
	if !ok {
		return sfi, obj.Links
	}

	sfi.Status = Outside
	if sfi.Path >= cfg.OverstepTolerance && mask.Contains(sfi.Local, cfg.MaskTolerance) {
		sfi.Status = Inside
	}
	return sfi, obj.Links
}

func intersectPlane(trk Track, tf model.Transform) (float64, model.Vec3, bool) {
	denom := tf.AxisZ.Dot(trk.Dir)
	if math.Abs(denom) < parallelEpsilon {
		return math.Inf(1), model.Vec3{}, false
	}
	path := tf.AxisZ.Dot(tf.Translation.Sub(trk.Pos)) / denom
	local := tf.PointToLocal(trk.Pos.At(trk.Dir, path))
	// The point is on the plane by construction.
	local.Z = 0
	return path, local, true
}

// intersectCylinder returns the nearest crossing of the barrel that is not
// further behind the track than overstep.
func intersectCylinder(trk Track, tf model.Transform, c model.Cylinder, overstep float64) (float64, model.Vec3, bool) {
	o := tf.PointToLocal(trk.Pos)
	d := tf.VectorToLocal(trk.Dir)

	a := d.X*d.X + d.Y*d.Y
	if a < parallelEpsilon {
		return math.Inf(1), model.Vec3{}, false
	}
	b := 2 * (o.X*d.X + o.Y*d.Y)
	cc := o.X*o.X + o.Y*o.Y - c.Radius*c.Radius
	disc := b*b - 4*a*cc
	if disc < 0 {
		return math.Inf(1), model.Vec3{}, false
	}
	sq := math.Sqrt(disc)
	near := (-b - sq) / (2 * a)
	far := (-b + sq) / (2 * a)

	path := near
	if near < overstep {
		path = far
	}
	return path, o.At(d, path), true
}
