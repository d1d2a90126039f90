package opcua

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/TYPOWERS/fermprofile/internal/adapters/setpointcsv"
	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// Config points the source at a controller or historian that serves
// recorded setpoint history over OPC UA.
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	SecurityMode    string `yaml:"security_mode"`
	SecurityPolicy  string `yaml:"security_policy"`
	ApplicationName string `yaml:"application_name"`

	// RunStart and RunEnd bound both the history window and the analysis.
	RunStart string `yaml:"run_start"`
	RunEnd   string `yaml:"run_end"`
	// Lookback opens the window when RunStart is unknown.
	Lookback time.Duration `yaml:"lookback"`

	// MaxValuesPerRead pages large histories through continuation points.
	MaxValuesPerRead uint32  `yaml:"max_values_per_read"`
	StepGapSeconds   float64 `yaml:"step_gap_seconds"`

	Nodes []NodeConfig `yaml:"nodes"`
}

// NodeConfig maps one historized setpoint node to a parameter name.
type NodeConfig struct {
	NodeID    string `yaml:"node_id"`
	Parameter string `yaml:"parameter"`
}

// Enabled reports whether an endpoint was configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "fermprofile"
	}
	if c.Lookback <= 0 {
		c.Lookback = 14 * 24 * time.Hour
	}
	if c.MaxValuesPerRead == 0 {
		c.MaxValuesPerRead = 1000
	}
	if c.StepGapSeconds == 0 {
		c.StepGapSeconds = 69
	}
	for i := range c.Nodes {
		if c.Nodes[i].Parameter == "" {
			c.Nodes[i].Parameter = c.Nodes[i].NodeID
		}
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if len(c.Nodes) == 0 {
		return errors.New("at least one node must be configured")
	}
	for _, n := range c.Nodes {
		if _, err := ua.ParseNodeID(n.NodeID); err != nil {
			return fmt.Errorf("node %q: %w", n.NodeID, err)
		}
	}
	if c.StepGapSeconds < 0 {
		return errors.New("step_gap_seconds must not be negative")
	}
	return nil
}

// historyClient is the part of *opcua.Client the source uses.
type historyClient interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	HistoryReadRawModified(ctx context.Context, nodes []*ua.HistoryReadValueID, details *ua.ReadRawModifiedDetails) (*ua.HistoryReadResponse, error)
}

var _ historyClient = (*opcua.Client)(nil)

// maxPages stops a server that keeps handing out continuation points.
const maxPages = 10000

// HistorySource reads the recorded history of the configured nodes once per
// Load, one series per node.
type HistorySource struct {
	cfg  Config
	obs  ports.Observability
	dial func(ctx context.Context) (historyClient, error)
	now  func() time.Time
}

var _ ports.SeriesSource = (*HistorySource)(nil)

func NewHistorySource(cfg Config, obs ports.Observability) (*HistorySource, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &HistorySource{cfg: cfg, obs: obs, now: time.Now}
	s.dial = s.connect
	return s, nil
}

func (s *HistorySource) Name() string { return "opcua:" + s.cfg.Endpoint }

// Load reads every node over the run window. A node whose history cannot be
// read is logged and skipped; an unreachable server is an error.
func (s *HistorySource) Load(ctx context.Context) (*domain.RunData, error) {
	bounds, err := domain.ParseBoundaries(s.cfg.RunStart, s.cfg.RunEnd)
	if err != nil {
		s.obs.LogWarn("run boundaries unusable", err)
	}
	from, to := s.window(bounds)

	client, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.obs.LogWarn("opcua close", err)
		}
	}()

	run := &domain.RunData{Boundaries: bounds}
	for _, node := range s.cfg.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := s.readNode(ctx, client, node, from, to)
		if err != nil {
			s.obs.LogWarn("skipping setpoint node", err, ports.Field{Key: "node", Value: node.NodeID})
			s.obs.IncCounter(ports.MetricFilesSkipped, 1)
			continue
		}
		run.Series = append(run.Series, domain.Series{
			Parameter:  node.Parameter,
			SourceFile: node.NodeID,
			Samples:    setpointcsv.AddStepPoints(samples, s.stepGap()),
		})
	}

	s.obs.LogInfo("setpoint history loaded",
		ports.Field{Key: "endpoint", Value: s.cfg.Endpoint},
		ports.Field{Key: "series", Value: len(run.Series)},
		ports.Field{Key: "from", Value: from},
		ports.Field{Key: "to", Value: to},
	)
	return run, nil
}

func (s *HistorySource) window(b domain.RunBoundaries) (from, to time.Time) {
	to = s.now().UTC()
	if b.End != nil {
		to = *b.End
	}
	from = to.Add(-s.cfg.Lookback)
	if b.Start != nil {
		from = *b.Start
	}
	return from, to
}

func (s *HistorySource) stepGap() time.Duration {
	return time.Duration(s.cfg.StepGapSeconds * float64(time.Second))
}

func (s *HistorySource) readNode(ctx context.Context, client historyClient, node NodeConfig, from, to time.Time) ([]domain.Sample, error) {
	id, err := ua.ParseNodeID(node.NodeID)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", node.NodeID, err)
	}
	details := &ua.ReadRawModifiedDetails{
		IsReadModified:   false,
		StartTime:        from,
		EndTime:          to,
		NumValuesPerNode: s.cfg.MaxValuesPerRead,
		ReturnBounds:     false,
	}

	var (
		out  []domain.Sample
		cont []byte
	)
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("history read %q: too many pages", node.NodeID)
		}
		resp, err := client.HistoryReadRawModified(ctx, []*ua.HistoryReadValueID{{
			NodeID:            id,
			DataEncoding:      &ua.QualifiedName{},
			ContinuationPoint: cont,
		}}, details)
		if err != nil {
			return nil, fmt.Errorf("history read %q: %w", node.NodeID, err)
		}
		if resp == nil || len(resp.Results) == 0 || resp.Results[0] == nil {
			return nil, fmt.Errorf("history read %q: empty result", node.NodeID)
		}
		res := resp.Results[0]
		if !good(res.StatusCode) {
			return nil, fmt.Errorf("history read %q failed: %s", node.NodeID, res.StatusCode)
		}
		out = append(out, historySamples(res.HistoryData)...)
		if len(res.ContinuationPoint) == 0 {
			break
		}
		cont = res.ContinuationPoint
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func historySamples(ext *ua.ExtensionObject) []domain.Sample {
	if ext == nil {
		return nil
	}
	hist, ok := ext.Value.(*ua.HistoryData)
	if !ok || hist == nil {
		return nil
	}
	out := make([]domain.Sample, 0, len(hist.DataValues))
	for _, dv := range hist.DataValues {
		if dv == nil || !good(dv.Status) {
			continue
		}
		v, ok := variantToFloat(dv.Value)
		if !ok {
			continue
		}
		ts := dv.SourceTimestamp
		if ts.IsZero() {
			ts = dv.ServerTimestamp
		}
		if ts.IsZero() {
			continue
		}
		out = append(out, domain.Sample{Timestamp: ts.UTC(), Value: v})
	}
	return out
}

// good reports a Good severity; GoodNoData and friends carry a subcode.
func good(code ua.StatusCode) bool {
	return uint32(code)&0xC0000000 == 0
}

func (s *HistorySource) connect(ctx context.Context) (historyClient, error) {
	client, err := opcua.NewClient(s.cfg.Endpoint, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("opcua connect: %w", err)
	}
	return client, nil
}

func (s *HistorySource) clientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(s.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(s.cfg.SecurityPolicy)),
		opcua.ApplicationName(s.cfg.ApplicationName),
	}
	if s.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(s.cfg.Username, s.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}
