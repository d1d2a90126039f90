package setpointcsv

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// Source reads a run folder of setpoint exports.
type Source struct {
	cfg Config
	obs ports.Observability
}

var _ ports.SeriesSource = (*Source)(nil)

func NewSource(cfg Config, obs ports.Observability) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		return nil, errors.New("data_dir is required")
	}
	return &Source{cfg: cfg, obs: obs}, nil
}

func (s *Source) Name() string { return "setpointcsv:" + s.cfg.DataDir }

// Load reads every selected export. Files that cannot be parsed are logged
// and skipped; an unusable folder is an error.
func (s *Source) Load(ctx context.Context) (*domain.RunData, error) {
	info, err := os.Stat(s.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open run folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open run folder: %s is not a directory", s.cfg.DataDir)
	}

	files, err := Discover(s.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("discover exports: %w", err)
	}

	run := &domain.RunData{Boundaries: s.boundaries()}
	wanted := s.selection()
	for _, path := range files.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, err := ReadFile(path)
		if err != nil {
			s.obs.LogWarn("skipping setpoint export", err, ports.Field{Key: "file", Value: path})
			s.obs.IncCounter(ports.MetricFilesSkipped, 1)
			continue
		}
		if wanted != nil && !wanted[series.Parameter] && !wanted[ParameterName(series.SourceFile)] {
			continue
		}
		series.Samples = AddStepPoints(series.Samples, s.cfg.stepGap())
		run.Series = append(run.Series, series)
	}

	s.obs.LogInfo("run folder loaded",
		ports.Field{Key: "dir", Value: s.cfg.DataDir},
		ports.Field{Key: "series", Value: len(run.Series)},
		ports.Field{Key: "run_start_known", Value: run.Boundaries.Start != nil},
		ports.Field{Key: "run_end_known", Value: run.Boundaries.End != nil},
	)
	return run, nil
}

func (s *Source) boundaries() domain.RunBoundaries {
	start, err := FindRunStart(s.cfg.DataDir)
	if err != nil {
		s.obs.LogWarn("reading reference times", err)
	}
	end, err := FindRunEnd(s.cfg.DataDir)
	if err != nil {
		s.obs.LogWarn("reading state export", err)
	}
	b, err := domain.ParseBoundaries(start, end)
	if err != nil {
		s.obs.LogWarn("run boundaries unusable", err)
	}
	return b
}

func (s *Source) selection() map[string]bool {
	if len(s.cfg.Parameters) == 0 {
		return nil
	}
	m := make(map[string]bool, len(s.cfg.Parameters))
	for _, p := range s.cfg.Parameters {
		m[p] = true
	}
	return m
}
