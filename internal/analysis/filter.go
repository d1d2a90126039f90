package analysis

import "github.com/TYPOWERS/fermprofile/internal/domain"

const durationSlack = 1e-9

// FilterMinDuration drops spans shorter than min hours.
func FilterMinDuration(spans []domain.Span, min float64) []domain.Span {
	out := spans[:0:0]
	for _, sp := range spans {
		if sp.Segment.Duration()+durationSlack >= min {
			out = append(out, sp)
		}
	}
	return out
}

// FilterZeroDuration drops segments without a positive duration.
func FilterZeroDuration(segs []domain.Segment) []domain.Segment {
	out := segs[:0:0]
	for _, s := range segs {
		if s.Duration() > 0 {
			out = append(out, s)
		}
	}
	return out
}
