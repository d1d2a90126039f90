package analysis

import (
	"math"

	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// GradientDetector labels every point flat or sloped from its local rate of
// change and turns runs of equal labels into segments. It tolerates noisy,
// densely sampled series better than the triplet scan but does not reproduce
// its output.
type GradientDetector struct {
	th Thresholds
}

var _ ports.Detector = (*GradientDetector)(nil)

func NewGradientDetector(th Thresholds) *GradientDetector {
	th.ApplyDefaults()
	return &GradientDetector{th: th}
}

func (d *GradientDetector) Name() string { return DetectorGradient }

type labelRun struct {
	flat     bool
	from, to int
}

func (r labelRun) points() int { return r.to - r.from + 1 }

func (d *GradientDetector) Detect(samples []domain.AlignedSample) []domain.Span {
	pts := elapsed(samples)
	n := len(pts)
	if n < 2 {
		return nil
	}

	slopes := gradientPerSecond(pts)
	runs := absorbShortRuns(labelRuns(slopes, d.th.Gradient.Epsilon), d.th.Gradient.MinRunPoints)

	var spans []domain.Span
	if first := pts[0].ProcessHours; first > d.th.InitialGap() {
		spans = append(spans, domain.Span{
			Segment:    domain.Constant{Setpoint: 0, DurationHours: first},
			StartHours: 0,
			EndHours:   first,
			Confidence: domain.ConfidenceHigh,
		})
	}

	for k, r := range runs {
		endIdx := r.to
		if k+1 < len(runs) {
			endIdx = runs[k+1].from
		}
		start, end := pts[r.from].ProcessHours, pts[endIdx].ProcessHours
		if end <= start {
			continue
		}

		sp := domain.Span{
			StartHours: start,
			EndHours:   end,
			Confidence: domain.ConfidenceMedium,
			DataPoints: r.points(),
		}
		if !r.flat && d.isRamp(pts, slopes, r, endIdx) {
			sp.Segment = domain.Ramp{
				StartValue:    RoundSig(pts[r.from].Value, d.th.SignificantFigures),
				EndValue:      RoundSig(pts[endIdx].Value, d.th.SignificantFigures),
				DurationHours: end - start,
			}
		} else {
			sp.Segment = domain.Constant{
				Setpoint:      RoundSig(pts[r.from].Value, d.th.SignificantFigures),
				DurationHours: end - start,
			}
		}
		spans = append(spans, sp)
	}
	return spans
}

func (d *GradientDetector) isRamp(pts []domain.AlignedSample, slopes []float64, r labelRun, endIdx int) bool {
	g := d.th.Gradient
	if pts[endIdx].ProcessHours-pts[r.from].ProcessHours < g.MinRampHours {
		return false
	}
	if math.Abs(pts[endIdx].Value-pts[r.from].Value) < g.MinRampChange {
		return false
	}
	mean, std := meanStd(slopes[r.from : r.to+1])
	return std < 2*math.Abs(mean)
}

// gradientPerSecond is the second-order finite difference on a non-uniform
// grid, one-sided at both ends. Coincident timestamps give a zero slope.
func gradientPerSecond(pts []domain.AlignedSample) []float64 {
	n := len(pts)
	x := make([]float64, n)
	for i, p := range pts {
		x[i] = p.ProcessHours * 3600
	}
	g := make([]float64, n)
	if n < 2 {
		return g
	}
	g[0] = safeDiv(pts[1].Value-pts[0].Value, x[1]-x[0])
	g[n-1] = safeDiv(pts[n-1].Value-pts[n-2].Value, x[n-1]-x[n-2])
	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		num := hs*hs*pts[i+1].Value + (hd*hd-hs*hs)*pts[i].Value - hd*hd*pts[i-1].Value
		g[i] = safeDiv(num, hs*hd*(hs+hd))
	}
	return g
}

func labelRuns(slopes []float64, eps float64) []labelRun {
	var runs []labelRun
	for i, s := range slopes {
		flat := math.Abs(s) < eps
		if len(runs) > 0 && runs[len(runs)-1].flat == flat {
			runs[len(runs)-1].to = i
			continue
		}
		runs = append(runs, labelRun{flat: flat, from: i, to: i})
	}
	return runs
}

// absorbShortRuns folds runs with fewer than min points into their
// predecessor and then joins neighbours that ended up with the same label.
func absorbShortRuns(runs []labelRun, min int) []labelRun {
	var out []labelRun
	for _, r := range runs {
		switch {
		case len(out) > 0 && r.points() < min:
			out[len(out)-1].to = r.to
		case len(out) > 0 && out[len(out)-1].flat == r.flat:
			out[len(out)-1].to = r.to
		default:
			out = append(out, r)
		}
	}
	if len(out) > 1 && out[0].points() < min {
		out[1].from = out[0].from
		out = out[1:]
	}
	return out
}

func meanStd(v []float64) (mean, std float64) {
	if len(v) == 0 {
		return 0, 0
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	for _, x := range v {
		std += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(std / float64(len(v)))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
