package fermprofile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfFromConfigAndBuilder(t *testing.T) {
	cfg := DefaultConfig()

	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithObservability(&stubObservability{})))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	src := &stubSource{run: testRun()}
	sink := &stubSink{}
	a, err := flow.From(src).To(sink)
	if err != nil {
		t.Fatalf("To returned error: %v", err)
	}
	if a.source != src {
		t.Fatalf("expected custom source to be wired")
	}
	if a.core.Sink != sink {
		t.Fatalf("expected custom sink to be wired")
	}
}

func TestFlowRunWithCallback(t *testing.T) {
	var got []*Profile
	flow, err := ConfFromConfig(DefaultConfig(), WithFlowOptions(WithObservability(&stubObservability{})))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	profiles, err := flow.From(&stubSource{run: testRun()}).Run(context.Background(),
		NewCallbackSink("collect", func(batch []*Profile) error {
			got = append(got, batch...)
			return nil
		}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(profiles) != 1 || len(got) != 1 || got[0] != profiles[0] {
		t.Fatalf("expected callback to receive the run's profile, got %d/%d", len(profiles), len(got))
	}
}

func TestConfLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "process_type: Temperature\npolicy:\n  max_parallel: 2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(path)
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}
	if flow.Config().ProcessType != "Temperature" || flow.Config().Policy.MaxParallel != 2 {
		t.Fatalf("unexpected config %+v", flow.Config())
	}
}
