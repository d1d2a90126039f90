package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TYPOWERS/fermprofile/internal/adapters/cache"
	"github.com/TYPOWERS/fermprofile/internal/adapters/store"
	"github.com/TYPOWERS/fermprofile/internal/analysis"
	"github.com/TYPOWERS/fermprofile/internal/app/pipeline"
	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
	"github.com/TYPOWERS/fermprofile/internal/profile"
)

const maxBodyBytes = 32 << 20

// ProfileReader looks up stored profiles. *store.SQLStore satisfies it.
type ProfileReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	List(ctx context.Context, limit int) ([]*domain.Profile, error)
}

type Options struct {
	Analyzer  *pipeline.Analyzer
	Store     ProfileReader // optional
	Cache     *cache.ProfileCache
	Obs       ports.Observability
	Metrics   http.Handler // defaults to promhttp.Handler()
	AccessLog io.Writer    // defaults to io.Discard
}

type Server struct {
	analyzer *pipeline.Analyzer
	store    ProfileReader
	cache    *cache.ProfileCache
	obs      ports.Observability
}

// NewHandler builds the routed, logged and panic-safe HTTP handler.
func NewHandler(opts Options) http.Handler {
	s := &Server{
		analyzer: opts.Analyzer,
		store:    opts.Store,
		cache:    opts.Cache,
		obs:      opts.Obs,
	}
	if s.cache == nil {
		s.cache, _ = cache.New(0)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	access := opts.AccessLog
	if access == nil {
		access = io.Discard
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/profiles", s.listProfiles).Methods(http.MethodGet)
	api := r.PathPrefix("/api/v1/profiles").Subrouter()
	api.HandleFunc("/analyze", s.analyze).Methods(http.MethodPost)
	api.HandleFunc("/trace", s.trace).Methods(http.MethodPost)
	api.HandleFunc("/timeline", s.timeline).Methods(http.MethodPost)
	api.HandleFunc("/draft", s.draft).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.getProfile).Methods(http.MethodGet)

	return handlers.CombinedLoggingHandler(access, handlers.RecoveryHandler()(r))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type sampleRequest struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

type analyzeRequest struct {
	Parameter   string          `json:"parameter"`
	SourceFile  string          `json:"source_file"`
	ProcessType string          `json:"process_type"`
	RunStart    string          `json:"run_start"`
	RunEnd      string          `json:"run_end"`
	Samples     []sampleRequest `json:"samples"`

	// Only read by the trace route.
	IncludePreRun bool `json:"include_pre_run"`
}

// decodeSeries parses an analyze or trace body. An unusable boundary is
// dropped: the series then starts at its first sample and is not truncated.
// Rows with unparseable timestamps are skipped.
func (s *Server) decodeSeries(body []byte) (analyzeRequest, domain.Series, domain.RunBoundaries, error) {
	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, domain.Series{}, domain.RunBoundaries{}, err
	}
	bounds, err := domain.ParseBoundaries(req.RunStart, req.RunEnd)
	if err != nil {
		s.obs.LogWarn("ignoring run boundary", err, ports.Field{Key: "parameter", Value: req.Parameter})
	}

	series := domain.Series{
		Parameter:  strings.TrimSpace(req.Parameter),
		SourceFile: req.SourceFile,
	}
	if series.Parameter == "" {
		series.Parameter = "setpoint"
	}
	skipped := 0
	for _, sr := range req.Samples {
		ts, err := domain.ParseInstant(sr.Timestamp)
		if err != nil {
			skipped++
			continue
		}
		series.Samples = append(series.Samples, domain.Sample{Timestamp: ts, Value: sr.Value})
	}
	if skipped > 0 {
		s.obs.LogWarn("analyze request rows skipped", nil,
			ports.Field{Key: "parameter", Value: series.Parameter},
			ports.Field{Key: "skipped", Value: skipped})
	}
	return req, series, bounds, nil
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	key := cache.Key(body)
	if cached, ok := s.cache.Get(key); ok {
		s.obs.IncCounter(ports.MetricCacheHits, 1)
		writeRaw(w, http.StatusOK, cached)
		return
	}

	req, series, bounds, err := s.decodeSeries(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := s.analyzer.AnalyzeSeries(r.Context(), series, bounds)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if req.ProcessType != "" {
		p.ProcessType = req.ProcessType
	}
	if err := s.analyzer.Write(r.Context(), []*domain.Profile{p}); err != nil {
		s.obs.LogError("analyze_store_failed", err, ports.Field{Key: "id", Value: p.ID.String()})
		writeError(w, http.StatusInternalServerError, "could not store profile")
		return
	}

	out, err := json.Marshal(profileResponse(p))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.cache.Add(key, out)
	s.obs.SetGauge(ports.MetricCacheEntries, float64(s.cache.Len()))
	writeRaw(w, http.StatusOK, out)
}

// trace returns the raw samples on the process-time axis, for plotting next to
// a profile. Samples before run_start are dropped unless include_pre_run is
// set, in which case they get negative hours.
func (s *Server) trace(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req, series, bounds, err := s.decodeSeries(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	aligned := analysis.Align(series.Samples, analysis.AlignOptions{
		RunStart:      bounds.Start,
		IncludePreRun: req.IncludePreRun,
	})
	resp := timelineResponse{
		Hours:  make([]float64, len(aligned)),
		Values: make([]float64, len(aligned)),
	}
	for i, a := range aligned {
		resp.Hours[i] = a.ProcessHours
		resp.Values[i] = a.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

type draftRequest struct {
	ProcessType  string           `json:"process_type"`
	TotalRuntime float64          `json:"total_runtime"`
	Segments     []profile.Record `json:"segments"`
}

// draft assembles a hand-written profile. Segments without a duration take
// the runtime still unallocated.
func (s *Server) draft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.TotalRuntime <= 0 {
		writeError(w, http.StatusBadRequest, "total_runtime must be positive")
		return
	}
	segs, err := profile.Segments(req.Segments)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := profile.Build(req.TotalRuntime, segs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		profile.ExportKey(req.ProcessType): profile.Records(d.Segments),
		"total_runtime":                    d.TotalRuntime,
		"used":                             d.Used(),
		"remaining":                        d.Remaining(),
	})
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "profile storage is not configured")
		return
	}

	profiles, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.obs.LogError("profile_list_failed", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	out := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "profile storage is not configured")
		return
	}

	p, err := s.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile not found")
		return
	case err != nil:
		s.obs.LogError("profile_lookup_failed", err, ports.Field{Key: "id", Value: id.String()})
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(p))
}

type timelineResponse struct {
	Hours  []float64 `json:"time_hours"`
	Values []float64 `json:"values"`
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	_, segs, err := profile.ParseExport(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pts := profile.Timeline(segs)
	resp := timelineResponse{
		Hours:  make([]float64, len(pts)),
		Values: make([]float64, len(pts)),
	}
	for i, pt := range pts {
		resp.Hours[i] = pt.Hours
		resp.Values[i] = pt.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

func profileResponse(p *domain.Profile) map[string]any {
	resp := map[string]any{
		"id":                             p.ID.String(),
		"parameter":                      p.Parameter,
		profile.ExportKey(p.ProcessType): profile.Records(p.Segments),
	}
	if p.SourceFile != "" {
		resp["source_file"] = p.SourceFile
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
