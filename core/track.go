package core

import "github.com/signalsfoundry/detector-navigator/model"

// Track is one sample of a trajectory: where the particle is, where it is
// heading and how much path it has travelled so far.
type Track struct {
	Pos  model.Vec3
	Dir  model.Vec3
	Path float64
}

// NewTrack returns a track at pos heading along dir (normalised).
func NewTrack(pos, dir model.Vec3) Track {
	return Track{Pos: pos, Dir: dir.Unit()}
}

// Advance moves the track by step along its direction.
func (t *Track) Advance(step float64) {
	t.Pos = t.Pos.At(t.Dir, step)
	t.Path += step
}
