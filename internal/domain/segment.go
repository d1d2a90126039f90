package domain

import "fmt"

// Kind names a segment variant.
type Kind string

const (
	KindConstant Kind = "constant"
	KindRamp     Kind = "ramp"
	KindPwm      Kind = "pwm"
	KindPid      Kind = "pid"
)

// AutoPIDController is the controller name given to promoted PID segments.
const AutoPIDController = "Auto-detected PID Controller"

// Segment is one typed interval of a profile. The set of variants is closed:
// Constant, Ramp, Pwm and Pid.
type Segment interface {
	Kind() Kind
	Duration() float64
	isSegment()
}

// Constant holds a single setpoint.
type Constant struct {
	Setpoint      float64
	DurationHours float64
}

// Ramp moves linearly from StartValue to EndValue.
type Ramp struct {
	StartValue    float64
	EndValue      float64
	DurationHours float64
}

// Pwm alternates between High and Low. Only produced by manual authoring.
type Pwm struct {
	High          float64
	Low           float64
	PulsePercent  float64
	DurationHours float64
}

// Controller is one named PID loop with its allowed output band.
type Controller struct {
	Name       string
	MinAllowed float64
	MaxAllowed float64
}

// Pid regulates around Setpoint. Controllers keeps insertion order.
type Pid struct {
	Controllers   []Controller
	Setpoint      float64
	DurationHours float64
}

func (Constant) Kind() Kind { return KindConstant }
func (Ramp) Kind() Kind     { return KindRamp }
func (Pwm) Kind() Kind      { return KindPwm }
func (Pid) Kind() Kind      { return KindPid }

func (c Constant) Duration() float64 { return c.DurationHours }
func (r Ramp) Duration() float64     { return r.DurationHours }
func (p Pwm) Duration() float64      { return p.DurationHours }
func (p Pid) Duration() float64      { return p.DurationHours }

func (Constant) isSegment() {}
func (Ramp) isSegment()     {}
func (Pwm) isSegment()      {}
func (Pid) isSegment()      {}

// WithDuration returns a copy of seg with its duration replaced.
func WithDuration(seg Segment, hours float64) Segment {
	switch s := seg.(type) {
	case Constant:
		s.DurationHours = hours
		return s
	case Ramp:
		s.DurationHours = hours
		return s
	case Pwm:
		s.DurationHours = hours
		return s
	case Pid:
		s.Controllers = append([]Controller(nil), s.Controllers...)
		s.DurationHours = hours
		return s
	default:
		panic(fmt.Sprintf("domain: unknown segment variant %T", seg))
	}
}

// TotalDuration sums the durations of segs.
func TotalDuration(segs []Segment) float64 {
	var total float64
	for _, s := range segs {
		total += s.Duration()
	}
	return total
}

// Confidence labels attached during detection.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Span is a segment plus the bookkeeping the analysis needs while it is
// being built. None of these fields survive into a finished profile.
type Span struct {
	Segment    Segment
	StartHours float64
	EndHours   float64
	Confidence string
	DataPoints int
	SourceFile string
}

// Finalize drops the analysis bookkeeping.
func Finalize(spans []Span) []Segment {
	out := make([]Segment, 0, len(spans))
	for _, sp := range spans {
		out = append(out, sp.Segment)
	}
	return out
}
