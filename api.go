package fermprofile

import (
	base "github.com/TYPOWERS/fermprofile/pkg/fermprofile"
)

// Re-exported errors for convenience.
var (
	ErrNoSource          = base.ErrNoSource
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrNoControllers     = base.ErrNoControllers
	ErrNegativeDuration  = base.ErrNegativeDuration
)

// Type aliases so consumers can import github.com/TYPOWERS/fermprofile directly.
type (
	Config           = base.Config
	Policy           = base.Policy
	Thresholds       = base.Thresholds
	SourceConfig     = base.SourceConfig
	OPCUAConfig      = base.OPCUAConfig
	StoreConfig      = base.StoreConfig
	MetricsConfig    = base.MetricsConfig
	HTTPConfig       = base.HTTPConfig
	LogConfig        = base.LogConfig
	Flow             = base.Flow
	FlowOption       = base.FlowOption
	Analyzer         = base.Analyzer
	AnalyzerOption   = base.AnalyzerOption
	Server           = base.Server
	Sample           = base.Sample
	Series           = base.Series
	RunBoundaries    = base.RunBoundaries
	RunData          = base.RunData
	Profile          = base.Profile
	Segment          = base.Segment
	Constant         = base.Constant
	Ramp             = base.Ramp
	Pwm              = base.Pwm
	Pid              = base.Pid
	Controller       = base.Controller
	SeriesSource     = base.SeriesSource
	Detector         = base.Detector
	ProfileSink      = base.ProfileSink
	ProfileBatchSink = base.ProfileBatchSink
	Observability    = base.Observability
	Field            = base.Field
	TimelinePoint    = base.TimelinePoint
	Draft            = base.Draft
	ControllerForm   = base.ControllerForm
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

func DefaultThresholds() Thresholds {
	return base.DefaultThresholds()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...AnalyzerOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

// Analyzer and options.
func NewAnalyzer(cfg *Config, opts ...AnalyzerOption) (*Analyzer, error) {
	return base.NewAnalyzer(cfg, opts...)
}

func WithDetector(d Detector) AnalyzerOption {
	return base.WithDetector(d)
}

func WithSink(s ProfileSink) AnalyzerOption {
	return base.WithSink(s)
}

func WithSource(src SeriesSource) AnalyzerOption {
	return base.WithSource(src)
}

func WithObservability(obs Observability) AnalyzerOption {
	return base.WithObservability(obs)
}

// HTTP server.
func NewServer(a *Analyzer) (*Server, error) {
	return base.NewServer(a)
}

// Sink adapters.
func NewCallbackSink(name string, fn ProfileBatchSink) ProfileSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (ProfileSink, <-chan []*Profile, func()) {
	return base.NewChannelSink(name, buffer)
}

// Export helpers.
func Export(processType string, segs []Segment) ([]byte, error) {
	return base.Export(processType, segs)
}

func ParseExport(data []byte) (string, []Segment, error) {
	return base.ParseExport(data)
}

func Timeline(segs []Segment) []TimelinePoint {
	return base.Timeline(segs)
}

// Manual authoring.
func NewControllerForm() ControllerForm {
	return base.NewControllerForm()
}

func BuildDraft(totalRuntime float64, segs []Segment) (Draft, error) {
	return base.BuildDraft(totalRuntime, segs)
}
