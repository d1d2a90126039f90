package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// AlignOptions selects the time origin for Align.
type AlignOptions struct {
	// RunStart is the inoculation instant. When nil the earliest sample is
	// the origin.
	RunStart *time.Time
	// IncludePreRun keeps samples recorded before RunStart, with negative
	// process time. Only useful for display.
	IncludePreRun bool
}

// Align converts samples to elapsed process hours. NaN values are dropped and
// the result is sorted by timestamp; samples sharing a timestamp keep their
// input order.
func Align(samples []domain.Sample, opts AlignOptions) []domain.AlignedSample {
	clean := make([]domain.Sample, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) || s.Timestamp.IsZero() {
			continue
		}
		clean = append(clean, s)
	}
	if len(clean) == 0 {
		return nil
	}
	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Timestamp.Before(clean[j].Timestamp)
	})

	origin := clean[0].Timestamp
	dropNegative := false
	if opts.RunStart != nil {
		origin = *opts.RunStart
		dropNegative = !opts.IncludePreRun
	}

	out := make([]domain.AlignedSample, 0, len(clean))
	for _, s := range clean {
		hours := s.Timestamp.Sub(origin).Seconds() / 3600
		if dropNegative && hours < 0 {
			continue
		}
		out = append(out, domain.AlignedSample{Sample: s, ProcessHours: hours})
	}
	return out
}

// Samples strips the process time from aligned samples.
func Samples(aligned []domain.AlignedSample) []domain.Sample {
	out := make([]domain.Sample, len(aligned))
	for i, a := range aligned {
		out[i] = a.Sample
	}
	return out
}
