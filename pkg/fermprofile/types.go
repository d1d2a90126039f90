package fermprofile

import (
	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// Sample is one recorded setpoint write.
type Sample = domain.Sample

// Series is the ordered samples of one parameter.
type Series = domain.Series

// RunBoundaries marks inoculation and unloading; either may be nil.
type RunBoundaries = domain.RunBoundaries

// RunData is every series of one run plus its boundaries.
type RunData = domain.RunData

// Profile is the finished segment list of one parameter.
type Profile = domain.Profile

// Segment is one of Constant, Ramp, Pwm or Pid.
type Segment = domain.Segment

type (
	Constant   = domain.Constant
	Ramp       = domain.Ramp
	Pwm        = domain.Pwm
	Pid        = domain.Pid
	Controller = domain.Controller
)

// SeriesSource loads the series of a run (CSV folder, database, test fixtures).
type SeriesSource = ports.SeriesSource

// Detector turns aligned samples into raw segments.
type Detector = ports.Detector

// ProfileSink persists or forwards finished profiles.
type ProfileSink = ports.ProfileSink

// Observability emits logs and metrics about the analysis.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field
