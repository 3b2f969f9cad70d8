package gesture

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestSmoother_FirstObservation(t *testing.T) {
	s := NewSmoother(0.6)

	got := s.Update(Point{X: 640, Y: 360})
	if got != (Point{X: 640, Y: 360}) {
		t.Errorf("expected first update to return raw point, got %+v", got)
	}

	if _, ok := s.Value(); !ok {
		t.Error("expected smoother to be primed after first update")
	}
}

func TestSmoother_Update(t *testing.T) {
	s := NewSmoother(0.5)
	s.Update(Point{X: 0, Y: 0})

	got := s.Update(Point{X: 100, Y: 50})
	if math.Abs(got.X-50) > epsilon || math.Abs(got.Y-25) > epsilon {
		t.Errorf("expected (50, 25), got %+v", got)
	}
}

func TestSmoother_ConvergesMonotonically(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
	}{
		{"light smoothing", 0.9},
		{"default smoothing", DefaultSmoothing},
		{"heavy smoothing", 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSmoother(tt.alpha)
			s.Update(Point{X: 10, Y: 700})

			target := Point{X: 900, Y: 200}
			prev := Distance(Point{X: 10, Y: 700}, target)

			for i := 0; i < 200; i++ {
				got := s.Update(target)
				d := Distance(got, target)
				if d > prev+epsilon {
					t.Fatalf("frame %d: distance grew from %f to %f", i, prev, d)
				}
				prev = d
			}

			if prev > 1e-3 {
				t.Errorf("expected convergence to target, still %f away", prev)
			}
		})
	}
}

func TestSmoother_AlphaClamped(t *testing.T) {
	if got := NewSmoother(0).Alpha(); got != DefaultSmoothing {
		t.Errorf("expected zero alpha to fall back to %f, got %f", DefaultSmoothing, got)
	}
	if got := NewSmoother(-2).Alpha(); got != DefaultSmoothing {
		t.Errorf("expected negative alpha to fall back to %f, got %f", DefaultSmoothing, got)
	}
	if got := NewSmoother(3).Alpha(); got != 1 {
		t.Errorf("expected alpha above 1 to clamp to 1, got %f", got)
	}

	s := NewSmoother(1)
	s.Update(Point{X: 1, Y: 1})
	if got := s.Update(Point{X: 5, Y: 9}); got != (Point{X: 5, Y: 9}) {
		t.Errorf("expected alpha 1 to track raw input, got %+v", got)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(0.2)
	s.Update(Point{X: 100, Y: 100})
	s.Update(Point{X: 200, Y: 200})

	s.Reset()
	if _, ok := s.Value(); ok {
		t.Fatal("expected smoother to be unprimed after reset")
	}

	got := s.Update(Point{X: 300, Y: 400})
	if got != (Point{X: 300, Y: 400}) {
		t.Errorf("expected first update after reset to return raw point, got %+v", got)
	}
}
