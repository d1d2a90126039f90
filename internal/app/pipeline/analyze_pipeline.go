package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TYPOWERS/fermprofile/internal/analysis"
	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// Stats describes what the pipeline did to one series.
type Stats struct {
	Samples   int
	Detected  int
	PIDs      int
	Truncated bool
}

// Process turns one series into a finished segment list: align, detect, drop
// very short spans, consolidate, cut to the run length, drop empty segments.
// It never fails; poor data yields a short or empty profile.
func Process(series domain.Series, bounds domain.RunBoundaries, th analysis.Thresholds, det ports.Detector) ([]domain.Segment, Stats) {
	aligned := analysis.Align(series.Samples, analysis.AlignOptions{RunStart: bounds.Start})
	st := Stats{Samples: len(aligned)}

	spans := det.Detect(aligned)
	st.Detected = len(spans)
	for i := range spans {
		spans[i].SourceFile = series.SourceFile
	}

	spans = analysis.FilterMinDuration(spans, th.MinDurationHours)
	spans = analysis.Consolidate(spans, th)
	for _, sp := range spans {
		if sp.Segment.Kind() == domain.KindPid {
			st.PIDs++
		}
	}

	segs := domain.Finalize(spans)
	if total, ok := bounds.Hours(); ok {
		segs, st.Truncated = analysis.Truncate(segs, total, th)
	}
	return analysis.FilterZeroDuration(segs), st
}

// Analyzer runs Process over series and hands finished profiles to the sink.
type Analyzer struct {
	Thresholds  analysis.Thresholds
	Detector    ports.Detector
	Sink        ports.ProfileSink
	Policy      ports.Policy
	Obs         ports.Observability
	ProcessType string
}

// AnalyzeSeries builds the profile of one series. The only error is a
// cancelled context.
func (a *Analyzer) AnalyzeSeries(ctx context.Context, series domain.Series, bounds domain.RunBoundaries) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	segs, st := Process(series, bounds, a.Thresholds, a.Detector)
	a.Obs.ObserveLatency(ports.MetricAnalysisLatency, time.Since(start).Seconds())

	a.Obs.IncCounter(ports.MetricSeriesAnalyzed, 1)
	a.Obs.IncCounter(ports.MetricSegmentsEmitted, float64(len(segs)))
	a.Obs.IncCounter(ports.MetricPIDPromotions, float64(st.PIDs))
	if st.Truncated {
		a.Obs.IncCounter(ports.MetricTruncations, 1)
	}
	a.Obs.SetGauge(ports.MetricLastProfileSize, float64(len(segs)))

	fields := []ports.Field{
		{Key: "parameter", Value: series.Parameter},
		{Key: "samples", Value: st.Samples},
		{Key: "detected", Value: st.Detected},
		{Key: "segments", Value: len(segs)},
		{Key: "detector", Value: a.Detector.Name()},
	}
	if len(segs) == 0 {
		a.Obs.IncCounter(ports.MetricSeriesEmpty, 1)
		a.Obs.LogWarn("series produced no segments", nil, fields...)
	} else {
		a.Obs.LogInfo("series analysed", fields...)
	}

	p := domain.NewProfile(series, bounds, segs)
	p.ProcessType = a.ProcessType
	return p, nil
}

// AnalyzeRun analyses every series of a run concurrently, bounded by
// Policy.MaxParallel, and writes the batch to the sink. Profiles come back in
// input order.
func (a *Analyzer) AnalyzeRun(ctx context.Context, run *domain.RunData) ([]*domain.Profile, error) {
	profiles := make([]*domain.Profile, len(run.Series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.Policy.MaxParallel))
	for i, series := range run.Series {
		g.Go(func() error {
			p, err := a.AnalyzeSeries(gctx, series, run.Boundaries)
			if err != nil {
				return err
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := a.Write(ctx, profiles); err != nil {
		return profiles, err
	}
	return profiles, nil
}

// Write hands profiles to the sink under the configured failure policy.
func (a *Analyzer) Write(ctx context.Context, profiles []*domain.Profile) error {
	if a.Sink == nil || len(profiles) == 0 {
		return nil
	}

	start := time.Now()
	if err := a.Sink.WriteProfiles(ctx, profiles); err != nil {
		a.Obs.IncCounter(ports.MetricSinkErrors, 1)
		if a.Policy.OnSinkError == ports.OnSinkErrorLog {
			a.Obs.LogError("sink_write_failed", err, ports.Field{Key: "sink", Value: a.Sink.Name()})
			return nil
		}
		return fmt.Errorf("sink %s: %w", a.Sink.Name(), err)
	}
	a.Obs.ObserveLatency(ports.MetricSinkLatency, time.Since(start).Seconds())
	a.Obs.IncCounter(ports.MetricProfilesWritten, float64(len(profiles)))
	return nil
}
