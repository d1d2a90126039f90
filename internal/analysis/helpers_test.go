package analysis

import (
	"math"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

var t0 = time.Date(2025, 7, 24, 8, 0, 0, 0, time.UTC)

// pt is a (hours, value) pair relative to t0.
type pt struct {
	h float64
	v float64
}

func at(hours float64) time.Time {
	return t0.Add(time.Duration(math.Round(hours * float64(time.Hour))))
}

func samplesOf(pts ...pt) []domain.Sample {
	out := make([]domain.Sample, len(pts))
	for i, p := range pts {
		out[i] = domain.Sample{Timestamp: at(p.h), Value: p.v}
	}
	return out
}

func alignedOf(pts ...pt) []domain.AlignedSample {
	start := t0
	return Align(samplesOf(pts...), AlignOptions{RunStart: &start})
}

func minutes(m float64) float64 { return m / 60 }

var approx = cmpopts.EquateApprox(0, 1e-6)

func segmentsDiff(want, got []domain.Segment) string {
	return cmp.Diff(want, got, approx, cmpopts.EquateEmpty())
}

func spanSegments(spans []domain.Span) []domain.Segment {
	return domain.Finalize(spans)
}
