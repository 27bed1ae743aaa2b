package model

// Transform places an object's local frame in the global frame. The
// rotation is stored as the three local axes expressed in global
// coordinates; for planar objects the local z axis is the surface normal.
type Transform struct {
	Translation Vec3
	AxisX       Vec3
	AxisY       Vec3
	AxisZ       Vec3
}

// IdentityTransform returns a transform whose local frame coincides with
// the global one.
func IdentityTransform() Transform {
	return Transform{
		AxisX: Vec3{X: 1},
		AxisY: Vec3{Y: 1},
		AxisZ: Vec3{Z: 1},
	}
}

// TranslationTransform returns an unrotated transform centred at t.
func TranslationTransform(t Vec3) Transform {
	tf := IdentityTransform()
	tf.Translation = t
	return tf
}

// NewTransform builds a right-handed frame centred at t whose local z axis
// points along normal. The local x axis is chosen as the projection of
// hint onto the plane orthogonal to normal; when hint is parallel to normal
// the global x (or y) axis is used instead.
func NewTransform(t, normal, hint Vec3) Transform {
	z := normal.Unit()
	x := hint.Sub(z.Scale(hint.Dot(z)))
	if x.Norm() < 1e-12 {
		x = Vec3{X: 1}.Sub(z.Scale(z.X))
		if x.Norm() < 1e-12 {
			x = Vec3{Y: 1}.Sub(z.Scale(z.Y))
		}
	}
	x = x.Unit()
	return Transform{
		Translation: t,
		AxisX:       x,
		AxisY:       z.Cross(x),
		AxisZ:       z,
	}
}

// PointToLocal maps a global point into the local frame.
func (t Transform) PointToLocal(p Vec3) Vec3 {
	return t.VectorToLocal(p.Sub(t.Translation))
}

// VectorToLocal rotates a global direction into the local frame.
func (t Transform) VectorToLocal(v Vec3) Vec3 {
	return Vec3{X: t.AxisX.Dot(v), Y: t.AxisY.Dot(v), Z: t.AxisZ.Dot(v)}
}

// PointToGlobal maps a local point into the global frame.
func (t Transform) PointToGlobal(p Vec3) Vec3 {
	return t.Translation.
		Add(t.AxisX.Scale(p.X)).
		Add(t.AxisY.Scale(p.Y)).
		Add(t.AxisZ.Scale(p.Z))
}
