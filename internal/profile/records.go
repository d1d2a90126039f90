// Package profile renders finished segment lists into the external profile
// format, reads them back, and supports building profiles by hand.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// DurationDecimals is the precision of rendered durations.
const DurationDecimals = 2

// Bounds is the allowed output band of one named PID controller.
type Bounds struct {
	MinAllowed float64 `json:"min_allowed"`
	MaxAllowed float64 `json:"max_allowed"`
}

// Record is one segment in the external format. Which fields are set depends
// on Type.
type Record struct {
	Type          string            `json:"type"`
	Controller    string            `json:"controller,omitempty"`
	Setpoint      *float64          `json:"setpoint,omitempty"`
	StartSetpoint *float64          `json:"start_setpoint,omitempty"`
	EndSetpoint   *float64          `json:"end_setpoint,omitempty"`
	HighSetpoint  *float64          `json:"high_setpoint,omitempty"`
	LowSetpoint   *float64          `json:"low_setpoint,omitempty"`
	PulsePercent  *float64          `json:"pulse_percent,omitempty"`
	MinAllowed    *float64          `json:"min_allowed,omitempty"`
	MaxAllowed    *float64          `json:"max_allowed,omitempty"`
	Controllers   map[string]Bounds `json:"controllers,omitempty"`
	Duration      float64           `json:"duration"`

	// Older hand-built profiles name ramp and pwm levels in degrees.
	StartTemp *float64 `json:"start_temp,omitempty"`
	EndTemp   *float64 `json:"end_temp,omitempty"`
	HighTemp  *float64 `json:"high_temp,omitempty"`
	LowTemp   *float64 `json:"low_temp,omitempty"`
}

func ptr(v float64) *float64 { return &v }

func roundDuration(h float64) float64 {
	p := math.Pow(10, DurationDecimals)
	return math.Round(h*p) / p
}

// Records renders segs. A PID with one controller uses the flat
// controller/min_allowed/max_allowed fields; several controllers are rendered
// as a name-keyed object.
func Records(segs []domain.Segment) []Record {
	out := make([]Record, 0, len(segs))
	for _, seg := range segs {
		out = append(out, record(seg))
	}
	return out
}

func record(seg domain.Segment) Record {
	r := Record{Type: string(seg.Kind()), Duration: roundDuration(seg.Duration())}
	switch s := seg.(type) {
	case domain.Constant:
		r.Setpoint = ptr(s.Setpoint)
	case domain.Ramp:
		r.StartSetpoint = ptr(s.StartValue)
		r.EndSetpoint = ptr(s.EndValue)
	case domain.Pwm:
		r.HighSetpoint = ptr(s.High)
		r.LowSetpoint = ptr(s.Low)
		r.PulsePercent = ptr(s.PulsePercent)
	case domain.Pid:
		r.Setpoint = ptr(s.Setpoint)
		if len(s.Controllers) == 1 {
			c := s.Controllers[0]
			r.Controller = c.Name
			r.MinAllowed = ptr(c.MinAllowed)
			r.MaxAllowed = ptr(c.MaxAllowed)
			break
		}
		r.Controllers = make(map[string]Bounds, len(s.Controllers))
		for _, c := range s.Controllers {
			r.Controllers[c.Name] = Bounds{MinAllowed: c.MinAllowed, MaxAllowed: c.MaxAllowed}
		}
	default:
		panic(fmt.Sprintf("profile: unknown segment variant %T", seg))
	}
	return r
}

var ErrInvalidRecord = errors.New("invalid profile record")

// Segments converts records back into segments. Controllers given as an
// object come back sorted by name.
func Segments(records []Record) ([]domain.Segment, error) {
	out := make([]domain.Segment, 0, len(records))
	for i, r := range records {
		seg, err := r.segment()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, seg)
	}
	return out, nil
}

func (r Record) segment() (domain.Segment, error) {
	if r.Duration < 0 {
		return nil, fmt.Errorf("%w: negative duration", ErrInvalidRecord)
	}
	switch domain.Kind(strings.ToLower(r.Type)) {
	case domain.KindConstant:
		if r.Setpoint == nil {
			return nil, missing("setpoint")
		}
		return domain.Constant{Setpoint: *r.Setpoint, DurationHours: r.Duration}, nil
	case domain.KindRamp:
		start, end := first(r.StartSetpoint, r.StartTemp), first(r.EndSetpoint, r.EndTemp)
		if start == nil || end == nil {
			return nil, missing("start_setpoint/end_setpoint")
		}
		return domain.Ramp{StartValue: *start, EndValue: *end, DurationHours: r.Duration}, nil
	case domain.KindPwm:
		high, low := first(r.HighSetpoint, r.HighTemp), first(r.LowSetpoint, r.LowTemp)
		if high == nil || low == nil || r.PulsePercent == nil {
			return nil, missing("high_setpoint/low_setpoint/pulse_percent")
		}
		return domain.Pwm{High: *high, Low: *low, PulsePercent: *r.PulsePercent, DurationHours: r.Duration}, nil
	case domain.KindPid:
		if r.Setpoint == nil {
			return nil, missing("setpoint")
		}
		pid := domain.Pid{Setpoint: *r.Setpoint, DurationHours: r.Duration}
		switch {
		case r.Controller != "":
			if r.MinAllowed == nil || r.MaxAllowed == nil {
				return nil, missing("min_allowed/max_allowed")
			}
			pid.Controllers = []domain.Controller{{Name: r.Controller, MinAllowed: *r.MinAllowed, MaxAllowed: *r.MaxAllowed}}
		case len(r.Controllers) > 0:
			names := make([]string, 0, len(r.Controllers))
			for name := range r.Controllers {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				b := r.Controllers[name]
				pid.Controllers = append(pid.Controllers, domain.Controller{Name: name, MinAllowed: b.MinAllowed, MaxAllowed: b.MaxAllowed})
			}
		default:
			return nil, missing("controller")
		}
		return pid, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, r.Type)
	}
}

func first(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidRecord, field)
}
