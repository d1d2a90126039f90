package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
process_type: Temperature
analysis:
  constant_gap_minutes: 3
source:
  data_dir: ./runs/B12
store:
  driver: sqlite
  conn_string: "file:profiles.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Analysis.ConstantGapMinutes != 3 {
		t.Fatalf("expected override 3, got %v", cfg.Analysis.ConstantGapMinutes)
	}
	if cfg.Analysis.RampGapMinutes != 1 {
		t.Fatalf("expected RampGapMinutes default 1, got %v", cfg.Analysis.RampGapMinutes)
	}
	if math.Abs(cfg.Analysis.RampMergeMaxAngle-math.Pi/20) > 1e-12 {
		t.Fatalf("expected ramp angle default pi/20, got %v", cfg.Analysis.RampMergeMaxAngle)
	}
	if cfg.Analysis.Detector != "triplet" {
		t.Fatalf("expected triplet detector by default, got %s", cfg.Analysis.Detector)
	}
	if cfg.Policy.MaxParallel != 4 || cfg.Policy.OnSinkError != "fail" {
		t.Fatalf("unexpected policy defaults %+v", cfg.Policy)
	}
	if cfg.Source.StepGapSeconds != 69 {
		t.Fatalf("expected step gap default 69s, got %v", cfg.Source.StepGapSeconds)
	}
	if cfg.Store.Table != "setpoint_profiles" {
		t.Fatalf("expected default table, got %s", cfg.Store.Table)
	}
	if cfg.Metrics.Addr != ":9100" || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected listen defaults %s %s", cfg.Metrics.Addr, cfg.HTTP.Addr)
	}
}

func TestLoadRejectsStoreWithoutConnString(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: postgres
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected missing conn_string to fail")
	}
}

func TestLoadRejectsUnknownDetector(t *testing.T) {
	path := writeConfig(t, `
analysis:
  detector: wavelet
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown detector to fail")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadKeepsExplicitZeroGaps(t *testing.T) {
	path := writeConfig(t, `
analysis:
  initial_gap_hours: 0
  merge_max_gap_hours: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Analysis.InitialGap() != 0 || cfg.Analysis.MergeMaxGap() != 0 {
		t.Fatalf("explicit zeros replaced by defaults: %v %v", cfg.Analysis.InitialGap(), cfg.Analysis.MergeMaxGap())
	}

	cfg, err = Load(writeConfig(t, "process_type: Temperature\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Analysis.InitialGap() != 0.1 || cfg.Analysis.MergeMaxGap() != 0.5 {
		t.Fatalf("unexpected defaults %v %v", cfg.Analysis.InitialGap(), cfg.Analysis.MergeMaxGap())
	}
}

func TestLoadOPCUASource(t *testing.T) {
	path := writeConfig(t, `
source:
  opcua:
    endpoint: opc.tcp://fermenter-7:4840
    run_start: "2025-07-24T23:06:15Z"
    lookback: 72h
    nodes:
      - node_id: "ns=2;s=Temperature.SP"
        parameter: Temperature
      - node_id: "ns=2;s=pH.SP"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	o := cfg.Source.OPCUA
	if !o.Enabled() || len(o.Nodes) != 2 || o.Nodes[1].Parameter != "ns=2;s=pH.SP" {
		t.Fatalf("unexpected opcua section %+v", o)
	}
	if o.Lookback.Hours() != 72 || o.MaxValuesPerRead != 1000 {
		t.Fatalf("unexpected opcua defaults %+v", o)
	}

	both := writeConfig(t, `
source:
  data_dir: ./runs/B12
  opcua:
    endpoint: opc.tcp://fermenter-7:4840
    nodes:
      - node_id: "ns=2;s=Temperature.SP"
`)
	if _, err := Load(both); err == nil {
		t.Fatalf("expected data_dir and opcua together to fail")
	}

	noNodes := writeConfig(t, `
source:
  opcua:
    endpoint: opc.tcp://fermenter-7:4840
`)
	if _, err := Load(noNodes); err == nil {
		t.Fatalf("expected opcua without nodes to fail")
	}
}
