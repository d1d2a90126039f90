package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

// Draft is a profile being built by hand against a planned run length.
type Draft struct {
	TotalRuntime float64
	Segments     []domain.Segment
}

// Used is the runtime already allocated to segments.
func (d Draft) Used() float64 {
	return domain.TotalDuration(d.Segments)
}

// Remaining is the unallocated runtime, never negative.
func (d Draft) Remaining() float64 {
	return math.Max(0, d.TotalRuntime-d.Used())
}

var ErrNegativeDuration = errors.New("duration must not be negative")

// Add appends seg. A zero duration is filled with the remaining runtime.
func (d Draft) Add(seg domain.Segment) (Draft, error) {
	switch {
	case seg.Duration() < 0:
		return d, ErrNegativeDuration
	case seg.Duration() == 0:
		seg = domain.WithDuration(seg, d.Remaining())
	}
	d.Segments = append(append([]domain.Segment(nil), d.Segments...), seg)
	return d, nil
}

// Remove drops the segment at index i.
func (d Draft) Remove(i int) Draft {
	if i < 0 || i >= len(d.Segments) {
		return d
	}
	segs := make([]domain.Segment, 0, len(d.Segments)-1)
	segs = append(segs, d.Segments[:i]...)
	d.Segments = append(segs, d.Segments[i+1:]...)
	return d
}

// MaxControllers caps the controller fields of a PID form.
const MaxControllers = 5

// ControllerField is one row of a PID form. Bounds are nil until entered.
type ControllerField struct {
	Name       string
	MinAllowed *float64
	MaxAllowed *float64
}

// ControllerForm is the editing state of a PID segment's controllers. It is a
// value; every operation returns the next state.
type ControllerForm struct {
	Fields []ControllerField
}

// NewControllerForm starts with a single empty field.
func NewControllerForm() ControllerForm {
	return ControllerForm{Fields: []ControllerField{{}}}
}

// Count is the number of visible fields.
func (f ControllerForm) Count() int { return len(f.Fields) }

// SetName names field i and, when that was the last field, opens a new one.
func (f ControllerForm) SetName(i int, name string) ControllerForm {
	if i < 0 || i >= len(f.Fields) {
		return f
	}
	f = f.clone()
	f.Fields[i].Name = name
	return f.grow()
}

// SetBounds records the allowed band of field i.
func (f ControllerForm) SetBounds(i int, lo, hi float64) ControllerForm {
	if i < 0 || i >= len(f.Fields) {
		return f
	}
	f = f.clone()
	f.Fields[i].MinAllowed = &lo
	f.Fields[i].MaxAllowed = &hi
	return f
}

func (f ControllerForm) grow() ControllerForm {
	n := len(f.Fields)
	if n == 0 {
		return NewControllerForm()
	}
	if strings.TrimSpace(f.Fields[n-1].Name) != "" && n < MaxControllers {
		f.Fields = append(f.Fields, ControllerField{})
	}
	return f
}

func (f ControllerForm) clone() ControllerForm {
	return ControllerForm{Fields: append([]ControllerField(nil), f.Fields...)}
}

// Controllers returns the complete fields in order. A repeated name keeps its
// first position and takes the later bounds.
func (f ControllerForm) Controllers() []domain.Controller {
	var out []domain.Controller
	index := map[string]int{}
	for _, fld := range f.Fields {
		name := strings.TrimSpace(fld.Name)
		if name == "" || fld.MinAllowed == nil || fld.MaxAllowed == nil {
			continue
		}
		c := domain.Controller{Name: name, MinAllowed: *fld.MinAllowed, MaxAllowed: *fld.MaxAllowed}
		if i, ok := index[name]; ok {
			out[i] = c
			continue
		}
		index[name] = len(out)
		out = append(out, c)
	}
	return out
}

var ErrNoControllers = errors.New("pid segment needs at least one complete controller")

// PID builds a PID segment from the form.
func (f ControllerForm) PID(setpoint, duration float64) (domain.Pid, error) {
	ctl := f.Controllers()
	if len(ctl) == 0 {
		return domain.Pid{}, ErrNoControllers
	}
	return domain.Pid{Controllers: ctl, Setpoint: setpoint, DurationHours: duration}, nil
}

// FormOf loads controllers into a fresh form in order. Empty names are
// skipped and anything past MaxControllers is dropped.
func FormOf(ctls []domain.Controller) ControllerForm {
	f := NewControllerForm()
	for _, c := range ctls {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		i := f.Count() - 1
		if f.Fields[i].Name != "" {
			break
		}
		f = f.SetName(i, c.Name).SetBounds(i, c.MinAllowed, c.MaxAllowed)
	}
	return f
}

// Build adds segs in order to an empty draft of totalRuntime hours. Zero
// durations take the remaining runtime and PID controllers go through a
// ControllerForm.
func Build(totalRuntime float64, segs []domain.Segment) (Draft, error) {
	d := Draft{TotalRuntime: totalRuntime}
	for i, seg := range segs {
		if pid, ok := seg.(domain.Pid); ok {
			built, err := FormOf(pid.Controllers).PID(pid.Setpoint, pid.DurationHours)
			if err != nil {
				return d, fmt.Errorf("segment %d: %w", i, err)
			}
			seg = built
		}
		next, err := d.Add(seg)
		if err != nil {
			return d, fmt.Errorf("segment %d: %w", i, err)
		}
		d = next
	}
	return d, nil
}
