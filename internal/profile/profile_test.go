package profile

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

func sample() []domain.Segment {
	return []domain.Segment{
		domain.Constant{Setpoint: 30, DurationHours: 5},
		domain.Ramp{StartValue: 30, EndValue: 37, DurationHours: 2},
		domain.Pid{
			Controllers:   []domain.Controller{{Name: domain.AutoPIDController, MinAllowed: 36.5, MaxAllowed: 37.5}},
			Setpoint:      37,
			DurationHours: 1.8,
		},
	}
}

func TestExportShape(t *testing.T) {
	data, err := Export("Temperature", sample())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`"temperature_profile"`,
		`"type": "constant"`,
		`"start_setpoint": 30`,
		`"end_setpoint": 37`,
		`"controller": "Auto-detected PID Controller"`,
		`"min_allowed": 36.5`,
		`"duration": 1.8`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in export:\n%s", want, out)
		}
	}
	if strings.Contains(out, "start_temp") {
		t.Fatalf("legacy fields must not be written:\n%s", out)
	}
}

func TestExportKey(t *testing.T) {
	if got := ExportKey(""); got != "profile" {
		t.Fatalf("expected profile, got %s", got)
	}
	if got := ExportKey("Dissolved Oxygen"); got != "dissolved_oxygen_profile" {
		t.Fatalf("expected dissolved_oxygen_profile, got %s", got)
	}
}

func TestParseExportRoundTrip(t *testing.T) {
	data, err := Export("pH", sample())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	key, segs, err := ParseExport(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if key != "ph_profile" {
		t.Fatalf("expected ph_profile, got %s", key)
	}
	if diff := cmp.Diff(sample(), segs, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("round trip changed profile (-want +got):\n%s", diff)
	}
}

func TestParseExportLegacyAndMultiController(t *testing.T) {
	data := []byte(`[
	  {"type": "ramp", "start_temp": 20, "end_temp": 30, "duration": 1},
	  {"type": "pwm", "high_temp": 40, "low_temp": 35, "pulse_percent": 25, "duration": 2},
	  {"type": "pid", "setpoint": 7, "duration": 3,
	   "controllers": {"base": {"min_allowed": 0, "max_allowed": 10}, "acid": {"min_allowed": 0, "max_allowed": 5}}}
	]`)
	_, segs, err := ParseExport(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []domain.Segment{
		domain.Ramp{StartValue: 20, EndValue: 30, DurationHours: 1},
		domain.Pwm{High: 40, Low: 35, PulsePercent: 25, DurationHours: 2},
		domain.Pid{
			Controllers: []domain.Controller{
				{Name: "acid", MinAllowed: 0, MaxAllowed: 5},
				{Name: "base", MinAllowed: 0, MaxAllowed: 10},
			},
			Setpoint:      7,
			DurationHours: 3,
		},
	}
	if diff := cmp.Diff(want, segs); diff != "" {
		t.Fatalf("unexpected segments (-want +got):\n%s", diff)
	}
}

func TestParseExportRejectsIncompleteRecord(t *testing.T) {
	_, _, err := ParseExport([]byte(`{"profile": [{"type": "constant", "duration": 1}]}`))
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	_, _, err = ParseExport([]byte(`{"profile": [{"type": "sine", "duration": 1}]}`))
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for unknown type, got %v", err)
	}
}

func TestRecordsRoundDurations(t *testing.T) {
	recs := Records([]domain.Segment{domain.Constant{Setpoint: 1, DurationHours: 1.0 / 3}})
	if recs[0].Duration != 0.33 {
		t.Fatalf("expected 0.33, got %v", recs[0].Duration)
	}
}

func TestTimeline(t *testing.T) {
	pts := Timeline(sample())
	want := []Point{{0, 30}, {5, 30}, {5, 30}, {7, 37}, {7, 37}, {8.8, 37}}
	if diff := cmp.Diff(want, pts, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("unexpected timeline (-want +got):\n%s", diff)
	}
}

func TestTimelinePwmCycles(t *testing.T) {
	pts := Timeline([]domain.Segment{domain.Pwm{High: 40, Low: 30, PulsePercent: 50, DurationHours: 60}})
	if len(pts) != 12*5 {
		t.Fatalf("expected 12 cycles of 5 points, got %d points", len(pts))
	}
	if pts[1].Value != 40 || math.Abs(pts[2].Hours-2.5) > 1e-9 || math.Abs(pts[4].Hours-5) > 1e-9 {
		t.Fatalf("unexpected first cycle %+v", pts[:5])
	}

	short := Timeline([]domain.Segment{domain.Pwm{High: 1, Low: 0, PulsePercent: 10, DurationHours: 2}})
	if len(short) != 10*5 {
		t.Fatalf("expected at least 10 cycles, got %d points", len(short))
	}
}

func TestDraftAutoFillsDuration(t *testing.T) {
	d := Draft{TotalRuntime: 120}
	d, err := d.Add(domain.Constant{Setpoint: 30, DurationHours: 100})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	d, err = d.Add(domain.Ramp{StartValue: 30, EndValue: 20})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := d.Segments[1].Duration(); got != 20 {
		t.Fatalf("expected remaining 20h, got %v", got)
	}

	d, _ = d.Add(domain.Constant{Setpoint: 20})
	if got := d.Segments[2].Duration(); got != 0 {
		t.Fatalf("expected no remaining runtime, got %v", got)
	}

	if _, err := d.Add(domain.Constant{DurationHours: -1}); !errors.Is(err, ErrNegativeDuration) {
		t.Fatalf("expected ErrNegativeDuration, got %v", err)
	}

	d = d.Remove(0)
	if len(d.Segments) != 2 || d.Remaining() != 100 {
		t.Fatalf("unexpected draft after remove: %d segments, %v remaining", len(d.Segments), d.Remaining())
	}
}

func TestControllerFormGrowsUpToFive(t *testing.T) {
	f := NewControllerForm()
	if f.Count() != 1 {
		t.Fatalf("expected one field, got %d", f.Count())
	}

	next := f.SetName(0, "heater")
	if f.Count() != 1 {
		t.Fatalf("form must not change in place")
	}
	if next.Count() != 2 {
		t.Fatalf("expected a new field after naming the last one, got %d", next.Count())
	}

	next = next.SetName(0, "heater2")
	if next.Count() != 2 {
		t.Fatalf("renaming an earlier field must not add one, got %d", next.Count())
	}

	for i := 1; i < 10; i++ {
		next = next.SetName(next.Count()-1, "c")
	}
	if next.Count() != MaxControllers {
		t.Fatalf("expected at most %d fields, got %d", MaxControllers, next.Count())
	}
}

func TestControllerFormBuildsPID(t *testing.T) {
	f := NewControllerForm().
		SetName(0, "heater").
		SetBounds(0, 0, 100).
		SetName(1, "chiller")

	if _, err := NewControllerForm().PID(37, 1); !errors.Is(err, ErrNoControllers) {
		t.Fatalf("expected ErrNoControllers, got %v", err)
	}

	pid, err := f.SetBounds(1, 0, 50).PID(37, 4)
	if err != nil {
		t.Fatalf("pid: %v", err)
	}
	want := []domain.Controller{
		{Name: "heater", MinAllowed: 0, MaxAllowed: 100},
		{Name: "chiller", MinAllowed: 0, MaxAllowed: 50},
	}
	if diff := cmp.Diff(want, pid.Controllers); diff != "" {
		t.Fatalf("unexpected controllers (-want +got):\n%s", diff)
	}

	incomplete, _ := f.PID(37, 4)
	if len(incomplete.Controllers) != 1 {
		t.Fatalf("expected the unbounded controller skipped, got %+v", incomplete.Controllers)
	}
}

func TestBuildFillsDurationsAndCapsControllers(t *testing.T) {
	var ctl []domain.Controller
	for _, name := range []string{"a", "", "b", "a", "c", "d", "e", "f"} {
		ctl = append(ctl, domain.Controller{Name: name, MinAllowed: 0, MaxAllowed: 1})
	}
	d, err := Build(10, []domain.Segment{
		domain.Constant{Setpoint: 30, DurationHours: 4},
		domain.Pid{Setpoint: 37, Controllers: ctl},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if d.Remaining() != 0 || d.Segments[1].Duration() != 6 {
		t.Fatalf("expected the PID to take the remaining 6h, got %+v", d.Segments)
	}
	pid := d.Segments[1].(domain.Pid)
	var names []string
	for _, c := range pid.Controllers {
		names = append(names, c.Name)
	}
	// The repeated "a" still holds one of the five fields.
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, names); diff != "" {
		t.Fatalf("unexpected controllers (-want +got):\n%s", diff)
	}

	if _, err := Build(10, []domain.Segment{domain.Pid{Setpoint: 37}}); !errors.Is(err, ErrNoControllers) {
		t.Fatalf("expected ErrNoControllers, got %v", err)
	}
	if _, err := Build(10, []domain.Segment{domain.Constant{DurationHours: -1}}); !errors.Is(err, ErrNegativeDuration) {
		t.Fatalf("expected ErrNegativeDuration, got %v", err)
	}
}
