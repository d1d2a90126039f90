package fermprofile

import (
	"context"
	"errors"
	"fmt"

	"github.com/TYPOWERS/fermprofile/internal/adapters/observability"
	"github.com/TYPOWERS/fermprofile/internal/adapters/opcua"
	"github.com/TYPOWERS/fermprofile/internal/adapters/setpointcsv"
	"github.com/TYPOWERS/fermprofile/internal/adapters/store"
	"github.com/TYPOWERS/fermprofile/internal/analysis"
	"github.com/TYPOWERS/fermprofile/internal/app/pipeline"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// ErrNoSource is returned by Run when neither a source nor a data directory
// was configured.
var ErrNoSource = errors.New("fermprofile: no series source configured")

// AnalyzerOption customizes the dependencies used by Analyzer.
type AnalyzerOption func(*analyzerOverrides)

type analyzerOverrides struct {
	detector      Detector
	sink          ProfileSink
	source        SeriesSource
	observability Observability
}

// WithDetector replaces the detector selected by analysis.detector.
func WithDetector(d Detector) AnalyzerOption {
	return func(o *analyzerOverrides) {
		o.detector = d
	}
}

// WithSink sends finished profiles somewhere other than the configured store.
func WithSink(s ProfileSink) AnalyzerOption {
	return func(o *analyzerOverrides) {
		o.sink = s
	}
}

// WithSource reads runs from something other than a CSV run folder.
func WithSource(src SeriesSource) AnalyzerOption {
	return func(o *analyzerOverrides) {
		o.source = src
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) AnalyzerOption {
	return func(o *analyzerOverrides) {
		o.observability = obs
	}
}

// Analyzer wires source → detector → consolidation → sink and exposes the
// pipeline to embedding programs.
type Analyzer struct {
	cfg    *Config
	core   *pipeline.Analyzer
	source ports.SeriesSource
	obs    ports.Observability
	store  *store.SQLStore
}

// NewAnalyzer bootstraps the default adapters (OPC UA history or CSV run
// folder from the source section, SQL store when store.driver is set,
// logrus + Prometheus observability). AnalyzerOption values override any of
// them.
func NewAnalyzer(cfg *Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var overrides analyzerOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		logger, err := observability.NewLogger(observability.LogOptions{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
		if err != nil {
			return nil, err
		}
		obs = observability.NewPromObs(nil, logger)
	}

	det := overrides.detector
	if det == nil {
		var err error
		det, err = analysis.NewDetector(cfg.Analysis)
		if err != nil {
			return nil, err
		}
	}

	a := &Analyzer{cfg: cfg, obs: obs}

	snk := overrides.sink
	if snk == nil && cfg.Store.Driver != "" {
		st, err := store.Open(cfg.Store.Driver, cfg.Store.ConnString, cfg.Store.Table)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(context.Background()); err != nil {
			_ = st.Close()
			return nil, err
		}
		a.store = st
		snk = st
	}

	a.source = overrides.source
	if a.source == nil {
		src, err := configuredSource(cfg, obs)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.source = src
	}

	a.core = &pipeline.Analyzer{
		Thresholds:  cfg.Analysis,
		Detector:    det,
		Sink:        snk,
		Policy:      cfg.Policy,
		Obs:         obs,
		ProcessType: cfg.ProcessType,
	}
	return a, nil
}

// configuredSource returns the OPC UA history source, the CSV run folder, or
// nil when neither is configured.
func configuredSource(cfg *Config, obs ports.Observability) (ports.SeriesSource, error) {
	switch {
	case cfg.Source.OPCUA.Enabled():
		src, err := opcua.NewHistorySource(cfg.Source.OPCUA, obs)
		if err != nil {
			return nil, err
		}
		return src, nil
	case cfg.Source.DataDir != "":
		src, err := setpointcsv.NewSource(cfg.Source.Config, obs)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, nil
}

// Analyze builds the profile of one series without writing it anywhere.
func (a *Analyzer) Analyze(ctx context.Context, series Series, bounds RunBoundaries) (*Profile, error) {
	return a.core.AnalyzeSeries(ctx, series, bounds)
}

// AnalyzeRun profiles every series of run and writes the batch to the sink.
func (a *Analyzer) AnalyzeRun(ctx context.Context, run *RunData) ([]*Profile, error) {
	if run == nil {
		return nil, fmt.Errorf("run is required")
	}
	return a.core.AnalyzeRun(ctx, run)
}

// Run loads the configured source once and analyses it.
func (a *Analyzer) Run(ctx context.Context) ([]*Profile, error) {
	if a.source == nil {
		return nil, ErrNoSource
	}
	run, err := a.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.source.Name(), err)
	}
	a.obs.LogInfo("run loaded",
		Field{Key: "source", Value: a.source.Name()},
		Field{Key: "series", Value: len(run.Series)})
	return a.core.AnalyzeRun(ctx, run)
}

// Close releases the store connection, if one was opened.
func (a *Analyzer) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Config returns the configuration the analyzer was built from.
func (a *Analyzer) Config() *Config { return a.cfg }
