package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// Consolidate merges compatible neighbours and then promotes runs of short
// constants to PID segments.
func Consolidate(spans []domain.Span, th Thresholds) []domain.Span {
	return PromotePID(Merge(spans, th), th)
}

// Merge sorts spans by start and folds each one into its predecessor when
// both are constants at the same setpoint separated by a small gap, or both
// are ramps of similar slope. Folding is transitive within the sweep.
func Merge(spans []domain.Span, th Thresholds) []domain.Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := append([]domain.Span(nil), spans...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartHours < sorted[j].StartHours
	})

	out := []domain.Span{sorted[0]}
	for _, next := range sorted[1:] {
		last := &out[len(out)-1]
		if merged, ok := mergePair(*last, next, th); ok {
			*last = merged
			continue
		}
		out = append(out, next)
	}
	return out
}

func mergePair(a, b domain.Span, th Thresholds) (domain.Span, bool) {
	switch sa := a.Segment.(type) {
	case domain.Constant:
		sb, ok := b.Segment.(domain.Constant)
		if !ok {
			return a, false
		}
		if math.Abs(sa.Setpoint-sb.Setpoint) >= th.MergeSetpointTolerance {
			return a, false
		}
		if b.StartHours-a.EndHours > th.MergeMaxGap() {
			return a, false
		}
		sa.DurationHours += sb.DurationHours
		a.Segment = sa
	case domain.Ramp:
		sb, ok := b.Segment.(domain.Ramp)
		if !ok || !similarSlope(sa, sb, th.RampMergeMaxAngle) {
			return a, false
		}
		sa.EndValue = sb.EndValue
		sa.DurationHours += sb.DurationHours
		a.Segment = sa
	case domain.Pwm, domain.Pid:
		return a, false
	default:
		panic(fmt.Sprintf("analysis: unknown segment variant %T", a.Segment))
	}
	a.EndHours = b.EndHours
	a.DataPoints += b.DataPoints
	return a, true
}

// similarSlope compares the slope angles of two ramps. A zero-length ramp has
// no slope and never matches.
func similarSlope(a, b domain.Ramp, maxAngle float64) bool {
	if a.DurationHours <= 0 || b.DurationHours <= 0 {
		return false
	}
	s1 := (a.EndValue - a.StartValue) / a.DurationHours
	s2 := (b.EndValue - b.StartValue) / b.DurationHours
	d := math.Abs(math.Atan(s1) - math.Atan(s2))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d <= maxAngle
}

// PromotePID replaces every maximal run of at least PidMinRun consecutive
// constants, each no longer than PidMaxDurationHours, with one PID segment.
// Shorter runs pass through untouched.
func PromotePID(spans []domain.Span, th Thresholds) []domain.Span {
	out := make([]domain.Span, 0, len(spans))
	for i := 0; i < len(spans); {
		j := i
		for j < len(spans) && isShortConstant(spans[j], th) {
			j++
		}
		switch {
		case j-i >= th.PidMinRun:
			out = append(out, pidFromRun(spans[i:j], th))
			i = j
		case j > i:
			out = append(out, spans[i:j]...)
			i = j
		default:
			out = append(out, spans[i])
			i++
		}
	}
	return out
}

func isShortConstant(sp domain.Span, th Thresholds) bool {
	c, ok := sp.Segment.(domain.Constant)
	return ok && c.DurationHours <= th.PidMaxDurationHours
}

func pidFromRun(run []domain.Span, th Thresholds) domain.Span {
	var (
		sum, total float64
		lo         = math.Inf(1)
		hi         = math.Inf(-1)
		points     int
	)
	for _, sp := range run {
		c := sp.Segment.(domain.Constant)
		sum += c.Setpoint
		total += c.DurationHours
		lo = math.Min(lo, c.Setpoint)
		hi = math.Max(hi, c.Setpoint)
		points += sp.DataPoints
	}
	mean := sum / float64(len(run))

	return domain.Span{
		Segment: domain.Pid{
			Controllers: []domain.Controller{{
				Name:       domain.AutoPIDController,
				MinAllowed: lo,
				MaxAllowed: hi,
			}},
			Setpoint:      RoundSig(mean, th.SignificantFigures),
			DurationHours: total,
		},
		StartHours: run[0].StartHours,
		EndHours:   run[len(run)-1].EndHours,
		Confidence: domain.ConfidenceMedium,
		DataPoints: points,
		SourceFile: run[0].SourceFile,
	}
}
