package analysis

import (
	"fmt"
	"math"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// Truncate cuts segs so that they end at totalHours. Segments that start at
// or after the limit are dropped; the one that crosses it keeps a whole
// number of truncation steps, so the result never runs past the limit. A cut
// ramp ends at the value it reaches after its new duration. truncated reports
// whether anything changed.
func Truncate(segs []domain.Segment, totalHours float64, th Thresholds) (out []domain.Segment, truncated bool) {
	if totalHours <= 0 {
		return segs, false
	}
	step := th.TruncateStepMinutes / 60

	out = make([]domain.Segment, 0, len(segs))
	var cum float64
	for _, seg := range segs {
		if cum >= totalHours {
			break
		}
		d := seg.Duration()
		if cum+d > totalHours {
			out = append(out, cut(seg, snapDown(totalHours-cum, step), th))
			return out, true
		}
		out = append(out, seg)
		cum += d
	}
	return out, len(out) < len(segs)
}

func snapDown(hours, step float64) float64 {
	if step <= 0 {
		return hours
	}
	return math.Floor(hours/step+1e-9) * step
}

func cut(seg domain.Segment, hours float64, th Thresholds) domain.Segment {
	switch s := seg.(type) {
	case domain.Ramp:
		if s.DurationHours > 0 {
			progress := hours / s.DurationHours
			s.EndValue = RoundSig(s.StartValue+(s.EndValue-s.StartValue)*progress, th.SignificantFigures)
		}
		s.DurationHours = hours
		return s
	case domain.Constant, domain.Pwm, domain.Pid:
		return domain.WithDuration(seg, hours)
	default:
		panic(fmt.Sprintf("analysis: unknown segment variant %T", seg))
	}
}
