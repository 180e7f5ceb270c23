package renderer

import (
	"context"
	"image"
	"image/draw"
	"sync/atomic"
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	duration := 1500 * time.Millisecond

	tests := []struct {
		elapsed      time.Duration
		wantProgress float64
		wantActive   bool
	}{
		{-10 * time.Millisecond, 0, true},
		{0, 0, true},
		{duration, 1, true},
		{duration + time.Millisecond, 1, false},
		{10 * duration, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			timing := Evaluate(tt.elapsed, duration, DefaultEasing)
			if timing.Progress != tt.wantProgress {
				t.Errorf("elapsed %v: expected progress %.2f, got %.4f", tt.elapsed, tt.wantProgress, timing.Progress)
			}
			if timing.Active != tt.wantActive {
				t.Errorf("elapsed %v: expected active=%v, got %v", tt.elapsed, tt.wantActive, timing.Active)
			}
			if timing.Elapsed < 0 || timing.Elapsed > duration {
				t.Errorf("elapsed %v not clamped: %v", tt.elapsed, timing.Elapsed)
			}
		})
	}
}

func TestEaseDecelerates(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 10; i++ {
		x := float64(i) / 10
		y := Ease(x, DefaultEasing)
		if y < prev {
			t.Fatalf("Ease not monotonic at %.1f: %.4f < %.4f", x, y, prev)
		}
		// ease-out runs ahead of linear
		if i < 10 && y <= x {
			t.Errorf("Expected eased %.4f > linear %.1f", y, x)
		}
		prev = y
	}

	if got := Ease(0.5, nil); got != 0.5 {
		t.Errorf("Nil easing should be linear, got %.4f", got)
	}
}

func TestManualClock(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewManualClock(start)
	c.Advance(40 * time.Millisecond)
	if got := c.Now().Sub(start); got != 40*time.Millisecond {
		t.Errorf("Expected 40ms, got %v", got)
	}
}

// countdown stays active for a fixed number of frames.
type countdown struct {
	left atomic.Int32
}

func (c *countdown) Measure(Constraints) image.Point { return image.Point{} }

func (c *countdown) Render(dst draw.Image, bound image.Rectangle) bool {
	return c.left.Add(-1) > 0
}

func TestDriverStopsWhenInactive(t *testing.T) {
	target := &countdown{}
	target.left.Store(3)

	presented := make(chan struct{}, 16)
	d := NewDriver(target, func(frame *image.RGBA) error {
		presented <- struct{}{}
		return nil
	}, time.Millisecond, nil)
	d.Resize(8, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-presented:
		case <-time.After(2 * time.Second):
			t.Fatalf("Frame %d was not presented", i)
		}
	}

	// No invalidation: the driver must stay idle.
	select {
	case <-presented:
		t.Error("Driver kept rendering after the target went inactive")
	case <-time.After(50 * time.Millisecond):
	}

	d.Invalidate()
	select {
	case <-presented:
	case <-time.After(2 * time.Second):
		t.Error("Invalidate did not wake the driver")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestDriverSkipsEmptyBound(t *testing.T) {
	d := NewDriver(&countdown{}, nil, 0, nil)
	active, err := d.Frame()
	if err != nil || active {
		t.Errorf("Expected idle frame, got active=%v err=%v", active, err)
	}
	if d.Frames() != 0 {
		t.Errorf("Expected no frames, got %d", d.Frames())
	}
}
