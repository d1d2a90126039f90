package observability

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/TYPOWERS/fermprofile/internal/ports"
)

type PromObs struct {
	log      *logrus.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

var _ ports.Observability = (*PromObs)(nil)

// LogOptions controls the logrus logger behind PromObs.
type LogOptions struct {
	Level  string
	Format string // "text", "json"
	Out    io.Writer
}

// NewLogger builds a logrus logger from opts.
func NewLogger(opts LogOptions) (*logrus.Logger, error) {
	logger := logrus.New()
	if opts.Out != nil {
		logger.SetOutput(opts.Out)
	} else {
		logger.SetOutput(os.Stderr)
	}
	if opts.Level != "" {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		logger.SetLevel(level)
	}
	switch opts.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q not supported", opts.Format)
	}
	return logger, nil
}

// NewPromObs registers the analysis metrics with reg (the default registerer
// when nil). Registering twice against the same registry reuses the existing
// collectors.
func NewPromObs(reg prometheus.Registerer, logger *logrus.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &PromObs{
		log:      logger,
		counters: map[string]prometheus.Counter{},
		gauges:   map[string]prometheus.Gauge{},
		histos:   map[string]prometheus.Observer{},
	}

	for name, help := range map[string]string{
		ports.MetricSeriesAnalyzed:  "Series run through the analysis pipeline.",
		ports.MetricSeriesEmpty:     "Series that produced no segments.",
		ports.MetricSegmentsEmitted: "Segments in finished profiles.",
		ports.MetricPIDPromotions:   "PID segments created from runs of short constants.",
		ports.MetricTruncations:     "Profiles cut to the run end.",
		ports.MetricProfilesWritten: "Profiles accepted by the sink.",
		ports.MetricSinkErrors:      "Failed sink writes.",
		ports.MetricFilesSkipped:    "Setpoint exports that could not be parsed.",
		ports.MetricCacheHits:       "Analysis requests answered from the cache.",
	} {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		p.counters[name] = register(reg, c).(prometheus.Counter)
	}

	for name, help := range map[string]string{
		ports.MetricLastProfileSize: "Segment count of the most recent profile.",
		ports.MetricCacheEntries:    "Entries held by the analysis cache.",
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		p.gauges[name] = register(reg, g).(prometheus.Gauge)
	}

	for name, help := range map[string]string{
		ports.MetricAnalysisLatency: "Time to turn one series into a profile.",
		ports.MetricSinkLatency:     "Time to persist one batch of profiles.",
	} {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		})
		p.histos[name] = register(reg, h).(prometheus.Histogram)
	}

	return p
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func fields(fs []ports.Field) logrus.Fields {
	out := make(logrus.Fields, len(fs))
	for _, f := range fs {
		out[f.Key] = f.Value
	}
	return out
}

func (p *PromObs) LogInfo(msg string, fs ...ports.Field) {
	p.log.WithFields(fields(fs)).Info(msg)
}

func (p *PromObs) LogWarn(msg string, err error, fs ...ports.Field) {
	entry := p.log.WithFields(fields(fs))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}

func (p *PromObs) LogError(msg string, err error, fs ...ports.Field) {
	entry := p.log.WithFields(fields(fs))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}
