package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/detector-navigator/model"
)

// UniformTrackConfig describes a theta/phi grid of straight tracks sharing
// one origin. Theta is the polar angle from the z axis.
type UniformTrackConfig struct {
	Origin    model.Vec3
	ThetaMin  float64
	ThetaMax  float64
	ThetaStep int
	PhiStep   int
}

// DefaultUniformTrackConfig returns a small forward cone that stays inside
// the default telescope's acceptance for most of its length.
func DefaultUniformTrackConfig() UniformTrackConfig {
	return UniformTrackConfig{
		Origin:    model.Vec3{Z: -0.5},
		ThetaMin:  0.01,
		ThetaMax:  0.5,
		ThetaStep: 10,
		PhiStep:   10,
	}
}

// Validate checks the grid parameters.
func (c UniformTrackConfig) Validate() error {
	if c.ThetaStep <= 0 || c.PhiStep <= 0 {
		return fmt.Errorf("track grid needs positive steps, got %dx%d", c.ThetaStep, c.PhiStep)
	}
	if c.ThetaMin < 0 || c.ThetaMax > math.Pi || c.ThetaMin > c.ThetaMax {
		return fmt.Errorf("invalid theta range [%g, %g]", c.ThetaMin, c.ThetaMax)
	}
	return nil
}

// Size returns the number of tracks the grid produces.
func (c UniformTrackConfig) Size() int { return c.ThetaStep * c.PhiStep }

// UniformTracks generates the track grid. Angles are taken at bin centres
// so no track runs exactly along an axis or a bin edge.
func UniformTracks(cfg UniformTrackConfig) ([]Track, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dTheta := (cfg.ThetaMax - cfg.ThetaMin) / float64(cfg.ThetaStep)
	dPhi := 2 * math.Pi / float64(cfg.PhiStep)

	tracks := make([]Track, 0, cfg.Size())
	for i := 0; i < cfg.ThetaStep; i++ {
		theta := cfg.ThetaMin + (float64(i)+0.5)*dTheta
		sinTheta, cosTheta := math.Sincos(theta)
		for j := 0; j < cfg.PhiStep; j++ {
			phi := -math.Pi + (float64(j)+0.5)*dPhi
			sinPhi, cosPhi := math.Sincos(phi)
			dir := model.Vec3{X: sinTheta * cosPhi, Y: sinTheta * sinPhi, Z: cosTheta}
			tracks = append(tracks, NewTrack(cfg.Origin, dir))
		}
	}
	return tracks, nil
}
