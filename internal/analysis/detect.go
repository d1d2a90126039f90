package analysis

import (
	"math"

	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// TripletDetector classifies a series by the time gaps between consecutive
// points. A long gap after a point means the point was held (constant); a run
// of tightly spaced points is a ramp.
type TripletDetector struct {
	th Thresholds
}

var _ ports.Detector = (*TripletDetector)(nil)

func NewTripletDetector(th Thresholds) *TripletDetector {
	th.ApplyDefaults()
	return &TripletDetector{th: th}
}

func (d *TripletDetector) Name() string { return DetectorTriplet }

// Detect returns spans ordered by start. Samples before hour zero are ignored.
// Fewer than two usable samples yield nothing.
func (d *TripletDetector) Detect(samples []domain.AlignedSample) []domain.Span {
	pts := elapsed(samples)
	if len(pts) < 2 {
		return nil
	}

	var spans []domain.Span
	if first := pts[0].ProcessHours; first > d.th.InitialGap() {
		spans = append(spans, d.constant(0, 0, first, 0))
	}

	if simple, ok := d.simple(pts); ok {
		return append(spans, simple...)
	}
	scanned := d.scan(pts)
	if len(scanned) == 0 {
		return nil
	}
	return append(spans, scanned...)
}

// simple handles series with at most two distinct values. ok is false when
// the series has to go through the full scan instead.
func (d *TripletDetector) simple(pts []domain.AlignedSample) ([]domain.Span, bool) {
	n := len(pts)
	first, last := pts[0].ProcessHours, pts[n-1].ProcessHours

	vals := distinctValues(pts, 3)
	switch len(vals) {
	case 1:
		return []domain.Span{d.constant(vals[0], first, last, n)}, true
	case 2:
		if math.Abs(vals[0]-vals[1]) < d.th.SimpleTolerance {
			avg := (vals[0] + vals[1]) / 2
			return []domain.Span{d.constant(avg, first, last, n)}, true
		}
		// An alternating two-level signal is a regulation pattern, not a
		// single step, and the scan can see that.
		if valueChanges(pts) > 1 {
			return nil, false
		}
		spans := make([]domain.Span, 0, 2)
		for _, v := range vals {
			start, end, count := occupancy(pts, v)
			spans = append(spans, d.constant(v, start, end, count))
		}
		return spans, true
	default:
		return nil, false
	}
}

func (d *TripletDetector) scan(pts []domain.AlignedSample) []domain.Span {
	n := len(pts)
	if n < 3 {
		return nil
	}

	var out []domain.Span
	for i := 0; i < n-1; {
		if i == n-2 {
			out = append(out, d.constant(pts[i].Value, pts[i].ProcessHours, pts[i+1].ProcessHours, 1))
			break
		}

		p1, p2, p3 := pts[i], pts[i+1], pts[i+2]
		gap12 := gapMinutes(p1, p2)
		gap23 := gapMinutes(p2, p3)

		switch {
		case gap12 > d.th.ConstantGapMinutes:
			out = append(out, d.constant(p1.Value, p1.ProcessHours, p2.ProcessHours, 1))
			i++
		case gap23 > d.th.ConstantGapMinutes:
			out = append(out, d.constant(p2.Value, p2.ProcessHours, p3.ProcessHours, 1))
			i += 2
		case gap23 <= d.th.RampGapMinutes:
			end := d.rampEnd(pts, i)
			out = append(out, d.ramp(pts, i, end))
			i = end
		default:
			i++
		}
	}
	return out
}

// rampEnd extends a ramp starting at i for as long as consecutive points stay
// within the ramp gap.
func (d *TripletDetector) rampEnd(pts []domain.AlignedSample, i int) int {
	end := i + 2
	for j := i + 2; j < len(pts)-1; j++ {
		if gapMinutes(pts[j], pts[j+1]) > d.th.RampGapMinutes {
			break
		}
		end = j + 1
	}
	return end
}

func (d *TripletDetector) constant(v, start, end float64, points int) domain.Span {
	return domain.Span{
		Segment: domain.Constant{
			Setpoint:      RoundSig(v, d.th.SignificantFigures),
			DurationHours: end - start,
		},
		StartHours: start,
		EndHours:   end,
		Confidence: domain.ConfidenceHigh,
		DataPoints: points,
	}
}

func (d *TripletDetector) ramp(pts []domain.AlignedSample, from, to int) domain.Span {
	start, end := pts[from].ProcessHours, pts[to].ProcessHours
	return domain.Span{
		Segment: domain.Ramp{
			StartValue:    RoundSig(pts[from].Value, d.th.SignificantFigures),
			EndValue:      RoundSig(pts[to].Value, d.th.SignificantFigures),
			DurationHours: end - start,
		},
		StartHours: start,
		EndHours:   end,
		Confidence: domain.ConfidenceHigh,
		DataPoints: to - from + 1,
	}
}

func elapsed(samples []domain.AlignedSample) []domain.AlignedSample {
	out := make([]domain.AlignedSample, 0, len(samples))
	for _, s := range samples {
		if s.ProcessHours >= 0 {
			out = append(out, s)
		}
	}
	return out
}

func gapMinutes(a, b domain.AlignedSample) float64 {
	return (b.ProcessHours - a.ProcessHours) * 60
}

// distinctValues returns up to limit distinct values in order of first
// appearance.
func distinctValues(pts []domain.AlignedSample, limit int) []float64 {
	var vals []float64
	for _, p := range pts {
		seen := false
		for _, v := range vals {
			if v == p.Value {
				seen = true
				break
			}
		}
		if !seen {
			vals = append(vals, p.Value)
			if len(vals) == limit {
				break
			}
		}
	}
	return vals
}

func valueChanges(pts []domain.AlignedSample) int {
	changes := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Value != pts[i-1].Value {
			changes++
		}
	}
	return changes
}

func occupancy(pts []domain.AlignedSample, v float64) (start, end float64, count int) {
	found := false
	for _, p := range pts {
		if p.Value != v {
			continue
		}
		if !found {
			start = p.ProcessHours
			found = true
		}
		end = p.ProcessHours
		count++
	}
	return start, end, count
}
