package benchmark

// Result is one benchmark run of a model version. Metrics the harness did
// not report are nil.
type Result struct {
	ID             string `json:"id"`
	ModelVersionID string `json:"model_version_id"`
	WorkloadType   string `json:"workload_type"`
	BatchSize      int    `json:"batch_size"`
	SequenceLength int    `json:"sequence_length"`
	GPUType        string `json:"gpu_type,omitempty"`
	Framework      string `json:"framework,omitempty"`

	TTFTP50Ms *float64 `json:"ttft_p50_ms,omitempty"`
	TTFTP90Ms *float64 `json:"ttft_p90_ms,omitempty"`
	TTFTP99Ms *float64 `json:"ttft_p99_ms,omitempty"`
	TPOTP50Ms *float64 `json:"tpot_p50_ms,omitempty"`
	TPOTP90Ms *float64 `json:"tpot_p90_ms,omitempty"`
	TPOTP99Ms *float64 `json:"tpot_p99_ms,omitempty"`

	ThroughputTokensSec *float64 `json:"throughput_tokens_sec,omitempty"`
	RequestsPerSec      *float64 `json:"rps_sustained,omitempty"`
	AccuracyScore       *float64 `json:"accuracy_score,omitempty"`
	GPUUtilizationPct   *float64 `json:"gpu_utilization_pct,omitempty"`
	MemoryUsedGB        *float64 `json:"memory_used_gb,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// Stats aggregates the results of one version. An average is nil when no
// result reported that metric.
type Stats struct {
	TotalBenchmarks      int      `json:"total_benchmarks"`
	AvgTTFTP50Ms         *float64 `json:"avg_ttft_p50_ms"`
	AvgTTFTP90Ms         *float64 `json:"avg_ttft_p90_ms"`
	AvgTPOTP50Ms         *float64 `json:"avg_tpot_p50_ms"`
	AvgTPOTP90Ms         *float64 `json:"avg_tpot_p90_ms"`
	AvgThroughput        *float64 `json:"avg_throughput"`
	MaxThroughput        *float64 `json:"max_throughput"`
	AvgAccuracy          *float64 `json:"avg_accuracy"`
	AvgGPUUtilizationPct *float64 `json:"avg_gpu_utilization_pct"`
	AvgMemoryUsedGB      *float64 `json:"avg_memory_used_gb"`
}

// Filter narrows a listing. Zero values are ignored.
type Filter struct {
	ModelVersionID string
	WorkloadType   string
	GPUType        string
	MaxTTFTP90Ms   *float64
	MinThroughput  *float64
	Limit          int
	Offset         int
}

// Matches applies every filter condition except paging. A result without
// the metric a threshold refers to does not match.
func (f Filter) Matches(r *Result) bool {
	if f.ModelVersionID != "" && r.ModelVersionID != f.ModelVersionID {
		return false
	}
	if f.WorkloadType != "" && r.WorkloadType != f.WorkloadType {
		return false
	}
	if f.GPUType != "" && r.GPUType != f.GPUType {
		return false
	}
	if f.MaxTTFTP90Ms != nil && (r.TTFTP90Ms == nil || *r.TTFTP90Ms > *f.MaxTTFTP90Ms) {
		return false
	}
	if f.MinThroughput != nil && (r.ThroughputTokensSec == nil || *r.ThroughputTokensSec < *f.MinThroughput) {
		return false
	}
	return true
}
