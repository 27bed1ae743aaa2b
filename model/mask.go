package model

import (
	"fmt"
	"math"
)

// MaskShape identifies the shape of an object's bounded extent.
type MaskShape string

const (
	MaskShapeRectangle MaskShape = "rectangle"
	MaskShapeRing      MaskShape = "ring"
	MaskShapeCylinder  MaskShape = "cylinder"
)

// Mask bounds an object in its local frame. Planar masks live in the local
// xy plane; the cylinder mask describes a barrel around the local z axis.
type Mask interface {
	Shape() MaskShape
	// Contains reports whether a local point lies within the mask, allowing
	// for tol of slack on every boundary.
	Contains(local Vec3, tol float64) bool
}

// Rectangle is a planar mask centred at the local origin.
type Rectangle struct {
	HalfX float64
	HalfY float64
}

func (Rectangle) Shape() MaskShape { return MaskShapeRectangle }

func (r Rectangle) Contains(local Vec3, tol float64) bool {
	return math.Abs(local.X) <= r.HalfX+tol && math.Abs(local.Y) <= r.HalfY+tol
}

// Ring is a planar annulus; an InnerR of zero makes it a disc.
type Ring struct {
	InnerR float64
	OuterR float64
}

func (Ring) Shape() MaskShape { return MaskShapeRing }

func (r Ring) Contains(local Vec3, tol float64) bool {
	rho := math.Hypot(local.X, local.Y)
	return rho >= r.InnerR-tol && rho <= r.OuterR+tol
}

// Cylinder is a barrel of fixed radius spanning [-HalfZ, HalfZ] along the
// local z axis.
type Cylinder struct {
	Radius float64
	HalfZ  float64
}

func (Cylinder) Shape() MaskShape { return MaskShapeCylinder }

func (c Cylinder) Contains(local Vec3, tol float64) bool {
	rho := math.Hypot(local.X, local.Y)
	return math.Abs(rho-c.Radius) <= tol+1e-9*c.Radius && math.Abs(local.Z) <= c.HalfZ+tol
}

// NewMask builds a mask of the given shape from its boundary values:
// rectangle (halfX, halfY), ring (innerR, outerR), cylinder (radius, halfZ).
func NewMask(shape MaskShape, values ...float64) (Mask, error) {
	if len(values) != 2 {
		return nil, fmt.Errorf("mask %q needs 2 values, got %d", shape, len(values))
	}
	a, b := values[0], values[1]
	switch shape {
	case MaskShapeRectangle:
		if a <= 0 || b <= 0 {
			return nil, fmt.Errorf("rectangle half lengths must be positive")
		}
		return Rectangle{HalfX: a, HalfY: b}, nil
	case MaskShapeRing:
		if a < 0 || b <= a {
			return nil, fmt.Errorf("ring radii must satisfy 0 <= inner < outer")
		}
		return Ring{InnerR: a, OuterR: b}, nil
	case MaskShapeCylinder:
		if a <= 0 || b <= 0 {
			return nil, fmt.Errorf("cylinder radius and half length must be positive")
		}
		return Cylinder{Radius: a, HalfZ: b}, nil
	default:
		return nil, fmt.Errorf("unknown mask shape %q", shape)
	}
}
