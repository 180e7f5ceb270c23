package director

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) SetNextImage(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestDirectorAdvances(t *testing.T) {
	rec := &recorder{}
	d := New(rec, nil)

	if d.Next() {
		t.Error("Next on an empty list must report false")
	}

	d.OnIndexLoaded([]string{"c.jpg", "b.jpg", "a.jpg"})
	if !d.Next() || !d.Next() {
		t.Fatal("Expected two more photos")
	}
	if d.Next() {
		t.Error("Expected the list to be exhausted")
	}

	want := []string{"c.jpg", "b.jpg", "a.jpg"}
	got := rec.got()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDirectorClampsOnShrink(t *testing.T) {
	rec := &recorder{}
	d := New(rec, nil)
	d.OnIndexLoaded([]string{"1", "2", "3", "4", "5"})
	d.Next()
	d.Next()
	d.Next()

	// counter 4 > len 2: pulled back to the last entry and shown again
	d.OnIndexLoaded([]string{"x", "y"})
	got := rec.got()
	if got[len(got)-1] != "y" {
		t.Errorf("Expected y after shrink, got %s", got[len(got)-1])
	}
	if shown, total := d.Position(); shown != 2 || total != 2 {
		t.Errorf("Expected position 2/2, got %d/%d", shown, total)
	}

	d.OnIndexLoaded(nil)
	if shown, total := d.Position(); shown != 0 || total != 0 {
		t.Errorf("Expected position 0/0 for an empty list, got %d/%d", shown, total)
	}
}

func TestAutoplay(t *testing.T) {
	rec := &recorder{}
	d := New(rec, nil)
	d.OnIndexLoaded([]string{"a", "b", "c"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Autoplay(ctx, 5*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.got()) < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if len(rec.got()) != 3 {
		t.Errorf("Expected all 3 photos, got %v", rec.got())
	}
	if err := d.Autoplay(context.Background(), 0); err != nil {
		t.Errorf("Zero interval must return nil, got %v", err)
	}
}
