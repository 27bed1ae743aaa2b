package model

import "math"

// InvalidIndex marks an unset volume or object index. A portal linking to
// InvalidIndex leads out of the world.
const InvalidIndex uint32 = math.MaxUint32

// ObjectKind distinguishes the two object collections of a volume.
type ObjectKind int

const (
	// KindSurface objects are crossed without leaving the volume.
	KindSurface ObjectKind = iota
	// KindPortal objects hand the track over to the linked volume.
	KindPortal
)

func (k ObjectKind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindPortal:
		return "portal"
	default:
		return "unknown"
	}
}

// Bounds is an axis-aligned box enclosing a volume.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// Contains reports whether p lies inside the box (boundary inclusive).
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Object is a surface or portal of a volume. Transform and mask are
// referenced by index into the owning ObjectStore.
type Object struct {
	Index     uint32
	Transform uint32
	Mask      uint32
	// Links holds the volume(s) reached through the object. Surfaces link
	// back to their own volume; only the first entry is used for
	// navigation.
	Links []uint32
}

// PrimaryLink returns the first link of the object, or InvalidIndex when
// the object has none.
func (o Object) PrimaryLink() uint32 {
	if len(o.Links) == 0 {
		return InvalidIndex
	}
	return o.Links[0]
}

// ObjectStore is one ordered object collection together with the
// transforms and masks its objects refer to.
type ObjectStore struct {
	objects    []Object
	transforms []Transform
	masks      []Mask
}

// Add appends an object with its own transform and mask and returns the
// object's index within the store.
func (s *ObjectStore) Add(tf Transform, mask Mask, links ...uint32) uint32 {
	idx := uint32(len(s.objects))
	s.transforms = append(s.transforms, tf)
	s.masks = append(s.masks, mask)
	s.objects = append(s.objects, Object{
		Index:     idx,
		Transform: uint32(len(s.transforms) - 1),
		Mask:      uint32(len(s.masks) - 1),
		Links:     append([]uint32(nil), links...),
	})
	return idx
}

// Size returns the number of objects in the store.
func (s *ObjectStore) Size() int { return len(s.objects) }

// ObjectAt returns the object at index i.
func (s *ObjectStore) ObjectAt(i uint32) Object { return s.objects[i] }

// Transforms returns the store's transform collection.
func (s *ObjectStore) Transforms() []Transform { return s.transforms }

// Masks returns the store's mask collection.
func (s *ObjectStore) Masks() []Mask { return s.masks }

// Volume is one spatial partition of the detector with its own surfaces
// and portals.
type Volume struct {
	index    uint32
	Name     string
	Bounds   Bounds
	surfaces ObjectStore
	portals  ObjectStore
}

// NewVolume constructs an empty volume. The index is assigned when the
// volume is registered with a detector.
func NewVolume(name string, bounds Bounds) *Volume {
	return &Volume{index: InvalidIndex, Name: name, Bounds: bounds}
}

// Index returns the volume's index within its detector.
func (v *Volume) Index() uint32 { return v.index }

// SetIndex assigns the volume index. Surfaces added before the index was
// known keep their links in sync.
func (v *Volume) SetIndex(idx uint32) {
	old := v.index
	v.index = idx
	for i := range v.surfaces.objects {
		links := v.surfaces.objects[i].Links
		for j := range links {
			if links[j] == old {
				links[j] = idx
			}
		}
	}
}

// AddSurface registers a surface; it links back to this volume.
func (v *Volume) AddSurface(tf Transform, mask Mask) uint32 {
	return v.surfaces.Add(tf, mask, v.index)
}

// AddPortal registers a portal leading to the given volume.
func (v *Volume) AddPortal(tf Transform, mask Mask, next uint32) uint32 {
	return v.portals.Add(tf, mask, next)
}

// Surfaces returns the volume's surface collection.
func (v *Volume) Surfaces() *ObjectStore { return &v.surfaces }

// Portals returns the volume's portal collection.
func (v *Volume) Portals() *ObjectStore { return &v.portals }

// Objects returns the collection of the requested kind.
func (v *Volume) Objects(kind ObjectKind) *ObjectStore {
	if kind == KindPortal {
		return &v.portals
	}
	return &v.surfaces
}
