package ports

// Metric names shared by the pipeline, the adapters and the Prometheus
// observability adapter.
const (
	MetricSeriesAnalyzed  = "fermprofile_series_analyzed_total"
	MetricSeriesEmpty     = "fermprofile_series_empty_total"
	MetricSegmentsEmitted = "fermprofile_segments_emitted_total"
	MetricPIDPromotions   = "fermprofile_pid_promotions_total"
	MetricTruncations     = "fermprofile_truncations_total"
	MetricProfilesWritten = "fermprofile_profiles_written_total"
	MetricSinkErrors      = "fermprofile_sink_errors_total"
	MetricFilesSkipped    = "fermprofile_source_files_skipped_total"
	MetricCacheHits       = "fermprofile_cache_hits_total"
	MetricAnalysisLatency = "fermprofile_analysis_latency_seconds"
	MetricSinkLatency     = "fermprofile_sink_latency_seconds"
	MetricLastProfileSize = "fermprofile_last_profile_segments"
	MetricCacheEntries    = "fermprofile_cache_entries"
)
