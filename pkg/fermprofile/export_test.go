package fermprofile

import (
	"errors"
	"testing"
)

func TestBuildDraftThroughFacade(t *testing.T) {
	_, segs, err := ParseExport([]byte(`[
  {"type": "constant", "setpoint": 30, "duration": 2},
  {"type": "ramp", "start_setpoint": 30, "end_setpoint": 37}
]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	d, err := BuildDraft(8, segs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r, ok := d.Segments[1].(Ramp); !ok || r.DurationHours != 6 || d.Remaining() != 0 {
		t.Fatalf("unexpected draft %+v", d.Segments)
	}

	form := NewControllerForm().SetName(0, "heater").SetBounds(0, 0, 100)
	pid, err := form.PID(37, 0)
	if err != nil {
		t.Fatalf("pid: %v", err)
	}
	d, err = BuildDraft(8, append(segs[:1:1], pid))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := d.Segments[1].Duration(); got != 6 {
		t.Fatalf("expected pid to take the remaining 6h, got %v", got)
	}

	if _, err := NewControllerForm().PID(37, 1); !errors.Is(err, ErrNoControllers) {
		t.Fatalf("expected ErrNoControllers, got %v", err)
	}
}
