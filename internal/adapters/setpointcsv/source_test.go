package setpointcsv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

type stubObs struct {
	warnings []string
	counters map[string]float64
}

func (s *stubObs) LogInfo(string, ...ports.Field) {}
func (s *stubObs) LogWarn(msg string, _ error, _ ...ports.Field) {
	s.warnings = append(s.warnings, msg)
}
func (s *stubObs) LogError(string, error, ...ports.Field) {}
func (s *stubObs) IncCounter(name string, v float64) {
	if s.counters == nil {
		s.counters = map[string]float64{}
	}
	s.counters[name] += v
}
func (s *stubObs) ObserveLatency(string, float64) {}
func (s *stubObs) SetGauge(string, float64)       {}

const tempExport = "\ufeffExported,2025-08-01\n" +
	"Unit,degC\n" +
	"VariableKey,Temperature\n" +
	"2025-07-24T23:10:00.0000000,30\n" +
	"2025-07-24T23:08:00.0000000,28\n" +
	"2025-07-24T23:11:00.0000000,nan\n" +
	"2025-07-24T23:12:00.0000000,\n" +
	"garbage\n" +
	"2025-07-24T23:20:00.0000000,31.5\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseSkipsBadRowsAndSorts(t *testing.T) {
	series, err := Parse(strings.NewReader(tempExport))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if series.Parameter != "Temperature" {
		t.Fatalf("expected parameter Temperature, got %q", series.Parameter)
	}
	if len(series.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(series.Samples))
	}
	if series.Samples[0].Value != 28 || series.Samples[2].Value != 31.5 {
		t.Fatalf("expected time-sorted samples, got %+v", series.Samples)
	}
}

func TestParseWithoutVariableKey(t *testing.T) {
	if _, err := Parse(strings.NewReader("a,b\n1,2\n")); err != ErrNoVariableKey {
		t.Fatalf("expected ErrNoVariableKey, got %v", err)
	}
}

func TestAddStepPoints(t *testing.T) {
	base := time.Date(2025, 7, 24, 23, 0, 0, 0, time.UTC)
	in := []domain.Sample{
		{Timestamp: base, Value: 1},
		{Timestamp: base.Add(60 * time.Second), Value: 2},
		{Timestamp: base.Add(200*time.Second + 500*time.Millisecond), Value: 3},
	}
	got := AddStepPoints(in, 69*time.Second)
	if len(got) != 4 {
		t.Fatalf("expected one step point, got %d samples", len(got))
	}
	step := got[2]
	if step.Value != 2 || !step.Timestamp.Equal(base.Add(199*time.Second)) {
		t.Fatalf("unexpected step point %+v", step)
	}
}

func TestParameterNaming(t *testing.T) {
	if got := ParameterName("Temperature_SP.csv"); got != "Temperature" {
		t.Fatalf("expected Temperature, got %q", got)
	}
	if !IsVariableExport("3f2a1b4c-1234-4abc-9def-0123456789ab_SP.csv") {
		t.Fatalf("expected UUID export to be a variable export")
	}
	if IsVariableExport("pH_SP.csv") {
		t.Fatalf("expected named export")
	}
}

func TestSourceLoadsRunFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Temperature_SP.csv", tempExport)
	writeFile(t, dir, "3f2a1b4c-1234-4abc-9def-0123456789ab_SP.csv", "VariableKey,Agitation\n2025-07-24T23:30:00,300\n")
	writeFile(t, dir, "Broken_SP.csv", "no header here\n")
	writeFile(t, dir, "Batch Reference times.csv", "Time,Comment,Event\n2025-07-24T23:06:15.1012886,,Inoculation\n")
	writeFile(t, dir, "State 1234.all.csv", "2025-07-24T20:00:00,,Loading\n2025-07-31T19:49:07.8355362,,Unloading\n")
	writeFile(t, dir, "notes.csv", "VariableKey,Ignored\n")

	obs := &stubObs{}
	src, err := NewSource(Config{DataDir: dir}, obs)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	run, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(run.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(run.Series))
	}
	if run.Series[0].Parameter != "Temperature" || run.Series[1].Parameter != "Agitation" {
		t.Fatalf("expected named exports first, got %s, %s", run.Series[0].Parameter, run.Series[1].Parameter)
	}
	// Both gaps (23:08 -> 23:10 -> 23:20) exceed the step gap.
	if n := len(run.Series[0].Samples); n != 5 {
		t.Fatalf("expected two step points inserted, got %d samples", n)
	}
	if run.Boundaries.Start == nil || run.Boundaries.End == nil {
		t.Fatalf("expected both run boundaries, got %+v", run.Boundaries)
	}
	if h, ok := run.Boundaries.Hours(); !ok || h < 164 || h > 165 {
		t.Fatalf("unexpected run length %v", h)
	}
	if obs.counters[ports.MetricFilesSkipped] != 1 {
		t.Fatalf("expected broken export counted, got %v", obs.counters)
	}
}

func TestSourceParameterSelection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Temperature_SP.csv", tempExport)
	writeFile(t, dir, "pH_SP.csv", "VariableKey,pH\n2025-07-24T23:30:00,7\n")

	src, err := NewSource(Config{DataDir: dir, Parameters: []string{"pH"}}, &stubObs{})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	run, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(run.Series) != 1 || run.Series[0].Parameter != "pH" {
		t.Fatalf("expected only pH, got %+v", run.Series)
	}
}

func TestSourceMissingFolder(t *testing.T) {
	src, err := NewSource(Config{DataDir: filepath.Join(t.TempDir(), "missing")}, &stubObs{})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatalf("expected missing folder to fail")
	}
}
