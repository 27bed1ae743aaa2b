package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/detector-navigator/model"
)

var (
	ErrVolumeExists   = errors.New("volume already registered")
	ErrVolumeBadInput = errors.New("invalid volume")
	ErrVolumeNotFound = errors.New("volume not found")
)

// EventType indicates what kind of change happened in the detector.
type EventType int

const (
	EventVolumeAdded EventType = iota
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type   EventType
	Index  uint32
	Name   string
	Bounds model.Bounds
}

// Detector is the geometry store the navigator reads from: an ordered set
// of volumes addressable by index or by a point inside them.
//
// Volumes are only added while the detector is being built. Once built the
// geometry is shared read-only between any number of navigators; the
// RWMutex keeps concurrent lookups cheap.
type Detector struct {
	mu sync.RWMutex

	name    string
	volumes []*model.Volume
	byName  map[string]uint32

	subs    map[int]func(Event)
	nextSub int
}

// NewDetector constructs an empty detector.
func NewDetector(name string) *Detector {
	return &Detector{
		name:   name,
		byName: make(map[string]uint32),
		subs:   make(map[int]func(Event)),
	}
}

// Name returns the detector name.
func (d *Detector) Name() string { return d.name }

// AddVolume registers v, assigns it the next volume index and returns that
// index. Volume names must be unique.
func (d *Detector) AddVolume(v *model.Volume) (uint32, error) {
	if v == nil || v.Name == "" {
		return model.InvalidIndex, fmt.Errorf("%w: nil or unnamed volume", ErrVolumeBadInput)
	}

	d.mu.Lock()
	if _, exists := d.byName[v.Name]; exists {
		d.mu.Unlock()
		return model.InvalidIndex, fmt.Errorf("%w: %q", ErrVolumeExists, v.Name)
	}
	idx := uint32(len(d.volumes))
	v.SetIndex(idx)
	d.volumes = append(d.volumes, v)
	d.byName[v.Name] = idx
	event := Event{
		Type:   EventVolumeAdded,
		Index:  idx,
		Name:   v.Name,
		Bounds: v.Bounds,
	}
	subs := d.subscribersLocked()
	d.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return idx, nil
}

// IndexedVolume returns the volume with the given index, or nil if not
// found.
func (d *Detector) IndexedVolume(index uint32) *model.Volume {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if index >= uint32(len(d.volumes)) {
		return nil
	}
	return d.volumes[index]
}

// VolumeAt returns the first volume (in index order) whose bounds contain
// p, or nil if p lies outside the world.
func (d *Detector) VolumeAt(p model.Vec3) *model.Volume {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, v := range d.volumes {
		if v.Bounds.Contains(p) {
			return v
		}
	}
	return nil
}

// VolumeByName looks a volume up by its unique name.
func (d *Detector) VolumeByName(name string) (*model.Volume, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	idx, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVolumeNotFound, name)
	}
	return d.volumes[idx], nil
}

// NumVolumes returns the number of registered volumes.
func (d *Detector) NumVolumes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.volumes)
}

// Volumes returns a snapshot slice of all volumes in index order.
func (d *Detector) Volumes() []*model.Volume {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*model.Volume(nil), d.volumes...)
}

// Subscribe registers a callback for detector events. Callbacks run in
// subscription order, outside the detector lock. It returns an unsubscribe
// function that is safe to call more than once and in any order.
func (d *Detector) Subscribe(fn func(Event)) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Detector) subscribersLocked() []func(Event) {
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Event), len(ids))
	for i, id := range ids {
		out[i] = d.subs[id]
	}
	return out
}
