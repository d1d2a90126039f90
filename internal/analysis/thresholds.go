package analysis

import (
	"errors"
	"fmt"
	"math"
)

// Thresholds holds every tunable rule of detection, consolidation and
// truncation. The zero value is not usable; start from DefaultThresholds or
// call ApplyDefaults.
//
// InitialGapHours and MergeMaxGapHours accept an explicit zero (always
// prepend the zero constant; merge only touching constants). Nil means the
// default.
type Thresholds struct {
	Detector string `yaml:"detector"`

	SignificantFigures int      `yaml:"significant_figures"`
	InitialGapHours    *float64 `yaml:"initial_gap_hours"`
	SimpleTolerance    float64  `yaml:"simple_tolerance"`
	ConstantGapMinutes float64  `yaml:"constant_gap_minutes"`
	RampGapMinutes     float64  `yaml:"ramp_gap_minutes"`

	MinDurationHours       float64  `yaml:"min_duration_hours"`
	MergeSetpointTolerance float64  `yaml:"merge_setpoint_tolerance"`
	MergeMaxGapHours       *float64 `yaml:"merge_max_gap_hours"`
	RampMergeMaxAngle      float64  `yaml:"ramp_merge_max_angle"`
	PidMaxDurationHours    float64  `yaml:"pid_max_duration_hours"`
	PidMinRun              int      `yaml:"pid_min_run"`

	TruncateStepMinutes float64 `yaml:"truncate_step_minutes"`

	Gradient GradientThresholds `yaml:"gradient"`
}

// GradientThresholds tunes the alternate slope classifier.
type GradientThresholds struct {
	Epsilon       float64 `yaml:"epsilon"`
	MinRunPoints  int     `yaml:"min_run_points"`
	MinRampHours  float64 `yaml:"min_ramp_hours"`
	MinRampChange float64 `yaml:"min_ramp_change"`
}

const (
	DetectorTriplet  = "triplet"
	DetectorGradient = "gradient"
)

const (
	defaultInitialGapHours  = 0.1
	defaultMergeMaxGapHours = 0.5
)

// Hours returns a pointer to h for the optional threshold fields.
func Hours(h float64) *float64 { return &h }

// InitialGap is how late the first sample may be before a zero constant is
// prepended.
func (t Thresholds) InitialGap() float64 {
	if t.InitialGapHours == nil {
		return defaultInitialGapHours
	}
	return *t.InitialGapHours
}

// MergeMaxGap is the widest gap two equal constants may be merged across.
func (t Thresholds) MergeMaxGap() float64 {
	if t.MergeMaxGapHours == nil {
		return defaultMergeMaxGapHours
	}
	return *t.MergeMaxGapHours
}

func DefaultThresholds() Thresholds {
	var t Thresholds
	t.ApplyDefaults()
	return t
}

// ApplyDefaults fills every unset field.
func (t *Thresholds) ApplyDefaults() {
	if t.Detector == "" {
		t.Detector = DetectorTriplet
	}
	if t.SignificantFigures <= 0 {
		t.SignificantFigures = 3
	}
	if t.InitialGapHours == nil {
		t.InitialGapHours = Hours(defaultInitialGapHours)
	}
	if t.SimpleTolerance == 0 {
		t.SimpleTolerance = 0.1
	}
	if t.ConstantGapMinutes == 0 {
		t.ConstantGapMinutes = 2
	}
	if t.RampGapMinutes == 0 {
		t.RampGapMinutes = 1
	}
	if t.MinDurationHours == 0 {
		t.MinDurationHours = 0.05
	}
	if t.MergeSetpointTolerance == 0 {
		t.MergeSetpointTolerance = 0.001
	}
	if t.MergeMaxGapHours == nil {
		t.MergeMaxGapHours = Hours(defaultMergeMaxGapHours)
	}
	if t.RampMergeMaxAngle == 0 {
		t.RampMergeMaxAngle = math.Pi / 20
	}
	if t.PidMaxDurationHours == 0 {
		t.PidMaxDurationHours = 1
	}
	if t.PidMinRun == 0 {
		t.PidMinRun = 3
	}
	if t.TruncateStepMinutes == 0 {
		t.TruncateStepMinutes = 5
	}
	if t.Gradient.Epsilon == 0 {
		t.Gradient.Epsilon = 0.001
	}
	if t.Gradient.MinRunPoints == 0 {
		t.Gradient.MinRunPoints = 5
	}
	if t.Gradient.MinRampHours == 0 {
		t.Gradient.MinRampHours = 0.5
	}
	if t.Gradient.MinRampChange == 0 {
		t.Gradient.MinRampChange = 0.1
	}
}

func (t Thresholds) Validate() error {
	var errs []error
	if t.Detector != DetectorTriplet && t.Detector != DetectorGradient {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDetector, t.Detector))
	}
	if t.RampGapMinutes > t.ConstantGapMinutes {
		errs = append(errs, fmt.Errorf("ramp_gap_minutes (%v) must not exceed constant_gap_minutes (%v)", t.RampGapMinutes, t.ConstantGapMinutes))
	}
	for name, v := range map[string]float64{
		"initial_gap_hours":        t.InitialGap(),
		"simple_tolerance":         t.SimpleTolerance,
		"constant_gap_minutes":     t.ConstantGapMinutes,
		"ramp_gap_minutes":         t.RampGapMinutes,
		"min_duration_hours":       t.MinDurationHours,
		"merge_setpoint_tolerance": t.MergeSetpointTolerance,
		"merge_max_gap_hours":      t.MergeMaxGap(),
		"ramp_merge_max_angle":     t.RampMergeMaxAngle,
		"pid_max_duration_hours":   t.PidMaxDurationHours,
		"truncate_step_minutes":    t.TruncateStepMinutes,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if t.PidMinRun < 2 {
		errs = append(errs, errors.New("pid_min_run must be at least 2"))
	}
	return errors.Join(errs...)
}
