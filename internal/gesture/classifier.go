package gesture

// Default classifier thresholds, in pixels.
const (
	DefaultPinchThreshold = 40.0
	DefaultMinDrawY       = 150.0
)

// ClassifierConfig holds the thresholds used to interpret a hand pose.
// All distances are in canvas pixels.
type ClassifierConfig struct {
	// PinchThreshold is the fingertip-to-thumb distance below which the
	// hand counts as pinching.
	PinchThreshold float64

	// MinDrawY gates drawing to cursor positions below this line. The band
	// above it is left for the palette wheel. Zero disables the gate.
	MinDrawY float64

	// ZoomThreshold is a second, tighter pinch distance. Below it a pinching
	// hand reports ZoomScale instead of 1. Zero disables zoom.
	ZoomThreshold float64

	// ZoomScale is the multiplier reported for a tight pinch.
	ZoomScale float64
}

// DefaultClassifierConfig returns the thresholds used by the single-hand
// air drawing setup at 1280x720.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		PinchThreshold: DefaultPinchThreshold,
		MinDrawY:       DefaultMinDrawY,
		ZoomScale:      1,
	}
}

// Classification is the result of classifying one frame.
type Classification struct {
	Pinching   bool    // fingertip and thumb are closer than PinchThreshold
	InDrawArea bool    // cursor passes the vertical gate
	Zoom       float64 // 1, or ZoomScale for a tight pinch
	Distance   float64 // fingertip-to-thumb distance in pixels
}

// PenDown reports whether this classification should put the pen on the
// canvas.
func (c Classification) PenDown() bool {
	return c.Pinching && c.InDrawArea
}

// Classifier decides pinch state from landmark positions.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config ClassifierConfig) Classifier {
	if config.ZoomScale <= 0 {
		config.ZoomScale = 1
	}
	return Classifier{config: config}
}

// Config returns the thresholds in use.
func (c Classifier) Config() ClassifierConfig {
	return c.config
}

// Classify compares the fingertip and thumb tip against the configured
// thresholds. The gate is tested against cursor, which is normally the
// smoothed fingertip. The result depends only on the arguments and the
// configuration.
func (c Classifier) Classify(tip, thumb, cursor Point) Classification {
	dist := Distance(tip, thumb)

	result := Classification{
		Pinching:   dist < c.config.PinchThreshold,
		InDrawArea: c.config.MinDrawY <= 0 || cursor.Y > c.config.MinDrawY,
		Zoom:       1,
		Distance:   dist,
	}

	if result.Pinching && c.config.ZoomThreshold > 0 && dist < c.config.ZoomThreshold {
		result.Zoom = c.config.ZoomScale
	}

	return result
}
