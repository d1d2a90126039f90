package fermprofile

import (
	"github.com/TYPOWERS/fermprofile/internal/profile"
)

// TimelinePoint is one vertex of a plotted profile.
type TimelinePoint = profile.Point

// Export renders segments as {"<process>_profile": [...]}.
func Export(processType string, segs []Segment) ([]byte, error) {
	return profile.Export(processType, segs)
}

// ParseExport reads an exported profile or a bare record array.
func ParseExport(data []byte) (key string, segs []Segment, err error) {
	return profile.ParseExport(data)
}

// Timeline lays segments end to end from hour zero for plotting.
func Timeline(segs []Segment) []TimelinePoint {
	return profile.Timeline(segs)
}

// Draft is a profile authored by hand against a planned run length.
type Draft = profile.Draft

// ControllerForm is the editing state of a PID segment's controllers.
type ControllerForm = profile.ControllerForm

var (
	ErrNoControllers    = profile.ErrNoControllers
	ErrNegativeDuration = profile.ErrNegativeDuration
)

// NewControllerForm starts a PID controller form with one empty field.
func NewControllerForm() ControllerForm {
	return profile.NewControllerForm()
}

// BuildDraft lays segs into a draft of totalRuntime hours, filling zero
// durations with whatever runtime is left.
func BuildDraft(totalRuntime float64, segs []Segment) (Draft, error) {
	return profile.Build(totalRuntime, segs)
}
