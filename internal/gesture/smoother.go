package gesture

// DefaultSmoothing is the EMA weight given to each new observation.
const DefaultSmoothing = 0.6

// Smoother applies an exponential moving average to a stream of points.
// The zero value is not usable; create one with NewSmoother.
type Smoother struct {
	alpha  float64
	value  Point
	primed bool
}

// NewSmoother creates a Smoother with the given smoothing factor.
// Values outside (0, 1] are clamped: non-positive values fall back to
// DefaultSmoothing and values above 1 disable smoothing.
func NewSmoother(alpha float64) *Smoother {
	switch {
	case alpha <= 0:
		alpha = DefaultSmoothing
	case alpha > 1:
		alpha = 1
	}
	return &Smoother{alpha: alpha}
}

// Alpha returns the smoothing factor in use.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Update folds a raw observation into the average and returns the new
// smoothed point. The first observation after creation or Reset is returned
// unchanged so the cursor does not sweep in from the origin.
func (s *Smoother) Update(raw Point) Point {
	if !s.primed {
		s.value = raw
		s.primed = true
		return s.value
	}
	s.value = Lerp(s.value, raw, s.alpha)
	return s.value
}

// Value returns the current smoothed point and whether any observation has
// been made since the last Reset.
func (s *Smoother) Value() (Point, bool) {
	return s.value, s.primed
}

// Reset forgets the current average.
func (s *Smoother) Reset() {
	s.value = Point{}
	s.primed = false
}
