package fermprofile

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → From → To
// without touching the underlying wiring.
type Flow struct {
	cfg  *Config
	opts []AnalyzerOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw AnalyzerOption values for advanced scenarios.
func (f *Flow) Options(opts ...AnalyzerOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// From sets the series source. A nil source keeps the configured run folder.
func (f *Flow) From(src SeriesSource) *Flow {
	if f == nil {
		return nil
	}
	if src != nil {
		f.appendOptions(WithSource(src))
	}
	return f
}

// To sets the profile sink and builds the Analyzer. A nil sink keeps the
// configured store.
func (f *Flow) To(sink ProfileSink) (*Analyzer, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	if sink != nil {
		f.appendOptions(WithSink(sink))
	}
	return NewAnalyzer(f.cfg, f.opts...)
}

// Run is a shortcut for To + Analyzer.Run + Close.
func (f *Flow) Run(ctx context.Context, sink ProfileSink) ([]*Profile, error) {
	a, err := f.To(sink)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Run(ctx)
}

// WithFlowOptions appends AnalyzerOption values during Conf.
func WithFlowOptions(opts ...AnalyzerOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

func (f *Flow) appendOptions(opts ...AnalyzerOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
