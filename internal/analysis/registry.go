package analysis

import (
	"fmt"

	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// NewDetector builds the detector named by th.Detector.
func NewDetector(th Thresholds) (ports.Detector, error) {
	th.ApplyDefaults()
	switch th.Detector {
	case DetectorTriplet:
		return NewTripletDetector(th), nil
	case DetectorGradient:
		return NewGradientDetector(th), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, th.Detector)
	}
}
