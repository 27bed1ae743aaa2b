package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/detector-navigator/kb"
	"github.com/signalsfoundry/detector-navigator/model"
)

// ErrBadTelescope is returned for telescope configurations that cannot be
// built.
var ErrBadTelescope = errors.New("invalid telescope geometry")

// TelescopeConfig describes a chain of box volumes along the z axis, each
// holding equally spaced rectangular surfaces.
type TelescopeConfig struct {
	Name              string
	Volumes           int
	SurfacesPerVolume int
	// Spacing is the distance between consecutive surfaces.
	Spacing float64
	HalfX   float64
	HalfY   float64
	// Envelope is the gap between a volume's front portal and its first
	// surface, and between the surfaces' edge and the side portals.
	Envelope float64
}

// DefaultTelescopeConfig returns a three volume telescope with four
// surfaces per volume. The first surface sits at z = 0.
func DefaultTelescopeConfig() TelescopeConfig {
	return TelescopeConfig{
		Name:              "telescope",
		Volumes:           3,
		SurfacesPerVolume: 4,
		Spacing:           10,
		HalfX:             50,
		HalfY:             50,
		Envelope:          1,
	}
}

// Validate checks that the configuration describes a buildable geometry.
func (c TelescopeConfig) Validate() error {
	switch {
	case c.Volumes <= 0:
		return fmt.Errorf("%w: volumes must be positive, got %d", ErrBadTelescope, c.Volumes)
	case c.SurfacesPerVolume < 0:
		return fmt.Errorf("%w: negative surface count %d", ErrBadTelescope, c.SurfacesPerVolume)
	case c.Spacing <= 0:
		return fmt.Errorf("%w: spacing must be positive, got %g", ErrBadTelescope, c.Spacing)
	case c.HalfX <= 0 || c.HalfY <= 0:
		return fmt.Errorf("%w: half lengths must be positive", ErrBadTelescope)
	case c.Envelope <= 0 || c.Envelope >= c.Spacing:
		return fmt.Errorf("%w: envelope %g must lie in (0, spacing)", ErrBadTelescope, c.Envelope)
	}
	return nil
}

// volumeLength is the z extent of one volume. A volume without surfaces
// still spans one spacing.
func (c TelescopeConfig) volumeLength() float64 {
	n := c.SurfacesPerVolume
	if n == 0 {
		n = 1
	}
	return float64(n) * c.Spacing
}

// halfWidth is the transverse half extent of every volume.
func (c TelescopeConfig) halfWidth() float64 {
	return math.Max(c.HalfX, c.HalfY) + c.Envelope
}

// BuildTelescope constructs the telescope detector. Volume i links to its
// neighbours through its front and back portals; the outermost front and
// back portals and all side portals lead out of the world. Each watcher
// receives the detector events raised while the volumes are registered.
func BuildTelescope(cfg TelescopeConfig, watchers ...func(kb.Event)) (*kb.Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "telescope"
	}

	det := kb.NewDetector(name)
	for _, watch := range watchers {
		if watch != nil {
			defer det.Subscribe(watch)()
		}
	}
	length := cfg.volumeLength()
	w := cfg.halfWidth()
	z0 := -cfg.Envelope

	for i := 0; i < cfg.Volumes; i++ {
		zLow := z0 + float64(i)*length
		zHigh := zLow + length
		zMid := 0.5 * (zLow + zHigh)

		vol := model.NewVolume(fmt.Sprintf("%s_%d", name, i), model.Bounds{
			Min: model.Vec3{X: -w, Y: -w, Z: zLow},
			Max: model.Vec3{X: w, Y: w, Z: zHigh},
		})

		for j := 0; j < cfg.SurfacesPerVolume; j++ {
			z := zLow + cfg.Envelope + float64(j)*cfg.Spacing
			vol.AddSurface(model.TranslationTransform(model.Vec3{Z: z}),
				model.Rectangle{HalfX: cfg.HalfX, HalfY: cfg.HalfY})
		}

		prev, next := model.InvalidIndex, model.InvalidIndex
		if i > 0 {
			prev = uint32(i - 1)
		}
		if i < cfg.Volumes-1 {
			next = uint32(i + 1)
		}
		endcap := model.Rectangle{HalfX: w, HalfY: w}
		vol.AddPortal(model.TranslationTransform(model.Vec3{Z: zLow}), endcap, prev)
		vol.AddPortal(model.TranslationTransform(model.Vec3{Z: zHigh}), endcap, next)

		side := model.Rectangle{HalfX: w, HalfY: 0.5 * length}
		for _, s := range []struct{ normal, hint model.Vec3 }{
			{model.Vec3{X: 1}, model.Vec3{Y: 1}},
			{model.Vec3{X: -1}, model.Vec3{Y: 1}},
			{model.Vec3{Y: 1}, model.Vec3{X: 1}},
			{model.Vec3{Y: -1}, model.Vec3{X: 1}},
		} {
			center := s.normal.Scale(w).Add(model.Vec3{Z: zMid})
			vol.AddPortal(model.NewTransform(center, s.normal, s.hint), side, model.InvalidIndex)
		}

		if _, err := det.AddVolume(vol); err != nil {
			return nil, fmt.Errorf("add volume %d: %w", i, err)
		}
	}
	return det, nil
}
