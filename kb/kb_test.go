package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/detector-navigator/model"
)

func box(minZ, maxZ float64) model.Bounds {
	return model.Bounds{
		Min: model.Vec3{X: -10, Y: -10, Z: minZ},
		Max: model.Vec3{X: 10, Y: 10, Z: maxZ},
	}
}

func TestAddAndGetVolume(t *testing.T) {
	det := NewDetector("test")
	v := model.NewVolume("inner", box(0, 10))
	v.AddSurface(model.TranslationTransform(model.Vec3{Z: 5}), model.Rectangle{HalfX: 1, HalfY: 1})

	idx, err := det.AddVolume(v)
	if err != nil {
		t.Fatalf("AddVolume error: %v", err)
	}
	if idx != 0 || v.Index() != 0 {
		t.Fatalf("volume index = %d/%d, want 0", idx, v.Index())
	}
	if got := det.IndexedVolume(0); got != v {
		t.Fatalf("IndexedVolume(0) = %p, want %p", got, v)
	}
	if got := v.Surfaces().ObjectAt(0).PrimaryLink(); got != 0 {
		t.Fatalf("surface link = %d, want own volume 0", got)
	}
	if got, err := det.VolumeByName("inner"); err != nil || got != v {
		t.Fatalf("VolumeByName = %v, %v", got, err)
	}
}

func TestAddVolumeValidation(t *testing.T) {
	det := NewDetector("test")
	if _, err := det.AddVolume(nil); !errors.Is(err, ErrVolumeBadInput) {
		t.Fatalf("expected ErrVolumeBadInput, got %v", err)
	}
	if _, err := det.AddVolume(model.NewVolume("a", box(0, 1))); err != nil {
		t.Fatalf("first AddVolume error: %v", err)
	}
	if _, err := det.AddVolume(model.NewVolume("a", box(1, 2))); !errors.Is(err, ErrVolumeExists) {
		t.Fatalf("expected ErrVolumeExists, got %v", err)
	}
	if _, err := det.VolumeByName("missing"); !errors.Is(err, ErrVolumeNotFound) {
		t.Fatalf("expected ErrVolumeNotFound, got %v", err)
	}
}

func TestIndexedVolumeOutOfRange(t *testing.T) {
	det := NewDetector("test")
	if got := det.IndexedVolume(model.InvalidIndex); got != nil {
		t.Fatalf("expected nil for invalid index, got %v", got)
	}
}

func TestVolumeAtPrefersLowerIndex(t *testing.T) {
	det := NewDetector("test")
	for i := range 3 {
		v := model.NewVolume(fmt.Sprintf("v-%d", i), box(float64(i)*10, float64(i+1)*10))
		if _, err := det.AddVolume(v); err != nil {
			t.Fatalf("AddVolume error: %v", err)
		}
	}

	if got := det.VolumeAt(model.Vec3{Z: 15}); got == nil || got.Index() != 1 {
		t.Fatalf("VolumeAt(z=15) = %v, want volume 1", got)
	}
	// Shared boundary resolves to the first registered volume.
	if got := det.VolumeAt(model.Vec3{Z: 10}); got == nil || got.Index() != 0 {
		t.Fatalf("VolumeAt(z=10) = %v, want volume 0", got)
	}
	if got := det.VolumeAt(model.Vec3{Z: 31}); got != nil {
		t.Fatalf("expected nil outside world, got volume %d", got.Index())
	}
	if got := len(det.Volumes()); got != 3 {
		t.Fatalf("Volumes len=%d, want 3", got)
	}
}

func TestSubscribeVolumeAdded(t *testing.T) {
	det := NewDetector("test")

	var got []Event
	unsubscribe := det.Subscribe(func(e Event) {
		got = append(got, e)
	})

	if _, err := det.AddVolume(model.NewVolume("a", box(0, 1))); err != nil {
		t.Fatalf("AddVolume error: %v", err)
	}
	unsubscribe()
	if _, err := det.AddVolume(model.NewVolume("b", box(1, 2))); err != nil {
		t.Fatalf("AddVolume error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Type != EventVolumeAdded || got[0].Name != "a" || got[0].Index != 0 {
		t.Fatalf("unexpected event %+v", got[0])
	}
}

func TestUnsubscribeOutOfOrder(t *testing.T) {
	det := NewDetector("test")

	counts := map[string]int{}
	var order []string
	subscribe := func(name string) func() {
		return det.Subscribe(func(Event) {
			counts[name]++
			order = append(order, name)
		})
	}
	unsubA := subscribe("a")
	subscribe("b")
	unsubC := subscribe("c")
	subscribe("d")

	unsubA()
	unsubC()
	unsubA()

	if _, err := det.AddVolume(model.NewVolume("v", box(0, 1))); err != nil {
		t.Fatalf("AddVolume error: %v", err)
	}
	if counts["a"] != 0 || counts["b"] != 1 || counts["c"] != 0 || counts["d"] != 1 {
		t.Fatalf("event counts = %v, want a=0 b=1 c=0 d=1", counts)
	}
	if fmt.Sprint(order) != "[b d]" {
		t.Fatalf("delivery order = %v, want [b d]", order)
	}
}

func TestConcurrentLookups(t *testing.T) {
	det := NewDetector("test")
	if _, err := det.AddVolume(model.NewVolume("a", box(0, 10))); err != nil {
		t.Fatalf("AddVolume error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = det.IndexedVolume(0)
			_ = det.NumVolumes()
		}()
		go func() {
			defer wg.Done()
			_ = det.VolumeAt(model.Vec3{Z: float64(i)})
		}()
	}
	wg.Wait()
}
