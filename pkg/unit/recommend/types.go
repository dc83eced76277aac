package recommend

import (
	"math"

	"github.com/jguan/model-catalog/pkg/unit/benchmark"
	"github.com/jguan/model-catalog/pkg/unit/hardware"
	"github.com/jguan/model-catalog/pkg/unit/model"
)

// Criterion names of the recommendation decision table.
const (
	CriterionAccuracy   = "accuracy"
	CriterionLatency    = "latency"
	CriterionThroughput = "throughput"
	CriterionCost       = "cost"
)

var (
	benefitCriteria = []string{CriterionAccuracy, CriterionThroughput}
	costCriteria    = []string{CriterionLatency, CriterionCost}
)

// Constraints are hard row filters. A nil bound is not applied.
type Constraints struct {
	MaxLatencyP90Ms *float64 `json:"max_latency_p90_ms"`
	MinThroughput   *float64 `json:"min_throughput"`
	MinAccuracy     *float64 `json:"min_accuracy"`
	MaxCostPerHour  *float64 `json:"max_cost_per_hour"`
	PreferSpot      bool     `json:"prefer_spot_instances"`
}

// admits reports whether stats satisfy every bound for which both the
// bound and the statistic are present.
func (c Constraints) admits(s *benchmark.Stats) bool {
	if c.MaxLatencyP90Ms != nil && s.AvgTTFTP90Ms != nil && *s.AvgTTFTP90Ms > *c.MaxLatencyP90Ms {
		return false
	}
	if c.MinThroughput != nil && s.AvgThroughput != nil && *s.AvgThroughput < *c.MinThroughput {
		return false
	}
	if c.MinAccuracy != nil && s.AvgAccuracy != nil && *s.AvgAccuracy < *c.MinAccuracy {
		return false
	}
	return true
}

type Weights struct {
	Accuracy   float64 `json:"accuracy"`
	Latency    float64 `json:"latency"`
	Throughput float64 `json:"throughput"`
	Cost       float64 `json:"cost"`
}

func DefaultWeights() Weights {
	return Weights{Accuracy: 0.30, Latency: 0.25, Throughput: 0.25, Cost: 0.20}
}

func (w Weights) Sum() float64 {
	return w.Accuracy + w.Latency + w.Throughput + w.Cost
}

// Map returns the weights rescaled to sum to exactly 1.
func (w Weights) Map() map[string]float64 {
	sum := w.Sum()
	return map[string]float64{
		CriterionAccuracy:   w.Accuracy / sum,
		CriterionLatency:    w.Latency / sum,
		CriterionThroughput: w.Throughput / sum,
		CriterionCost:       w.Cost / sum,
	}
}

func (w Weights) valid() bool {
	for _, v := range []float64{w.Accuracy, w.Latency, w.Throughput, w.Cost} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return math.Abs(w.Sum()-1) <= WeightTolerance
}

// Request asks for the best model/hardware pairs for a use case. Zero
// Weights select DefaultWeights and a zero Limit selects DefaultLimit.
type Request struct {
	UseCase     string      `json:"use_case"`
	Constraints Constraints `json:"constraints"`
	Weights     Weights     `json:"weights"`
	Limit       int         `json:"limit"`
}

// GPU is the hardware matched to a recommended version.
type GPU struct {
	GPUType        string  `json:"gpu_type"`
	Count          int     `json:"count"`
	TotalVRAMGB    float64 `json:"total_vram_gb"`
	UtilizationPct float64 `json:"utilization_pct"`
	CostPerHourUSD float64 `json:"cost_per_hour_usd"`
	SpotAvailable  bool    `json:"spot_available"`
}

func gpuFrom(c hardware.GPUConfig) GPU {
	return GPU{
		GPUType:        c.GPUType,
		Count:          c.Count,
		TotalVRAMGB:    c.TotalVRAMGB,
		UtilizationPct: c.UtilizationPct,
		CostPerHourUSD: c.CostPerHourUSD,
		SpotAvailable:  c.SpotAvailable,
	}
}

// ModelCard is one ranked recommendation. Averages are nil when no
// benchmark reported the metric.
type ModelCard struct {
	ModelID           string   `json:"model_id"`
	ModelName         string   `json:"model_name"`
	Architecture      string   `json:"architecture"`
	Parameters        int64    `json:"parameters"`
	VersionID         string   `json:"version_id"`
	Quantization      string   `json:"quantization"`
	AvgAccuracy       *float64 `json:"avg_accuracy"`
	AvgLatencyP90Ms   *float64 `json:"avg_latency_p90_ms"`
	AvgThroughput     *float64 `json:"avg_throughput"`
	VRAMRequirementGB float64  `json:"vram_requirement_gb"`
	RecommendedGPU    GPU      `json:"recommended_gpu"`
	TOPSISScore       float64  `json:"topsis_score"`
	Rank              int      `json:"rank"`
}

// Recommendation is the full outcome of one request. TotalCandidates counts
// the versions that survived filtering, before truncation.
type Recommendation struct {
	UseCase         string      `json:"use_case"`
	TotalCandidates int         `json:"total_candidates"`
	Recommendations []ModelCard `json:"recommendations"`
	Constraints     Constraints `json:"constraints"`
	Weights         Weights     `json:"weights"`
}

// VersionDetails summarises one benchmarked version of a model.
type VersionDetails struct {
	VersionID         string               `json:"version_id"`
	Version           string               `json:"version"`
	Quantization      string               `json:"quantization"`
	VRAMRequirementGB float64              `json:"vram_requirement_gb"`
	RecommendedGPUs   []hardware.GPUConfig `json:"recommended_gpus"`
	Stats             benchmark.Stats      `json:"stats"`
}

// ModelDetails is a model with its benchmarked versions and averages
// taken over those versions.
type ModelDetails struct {
	model.Model
	AvgAccuracy     *float64         `json:"avg_accuracy"`
	AvgThroughput   *float64         `json:"avg_throughput"`
	AvgLatencyP90Ms *float64         `json:"avg_latency_p90_ms"`
	Versions        []VersionDetails `json:"versions"`
	UseCases        []model.UseCase  `json:"use_cases"`
}

// SearchHit is a search result with the newest version's benchmark averages.
type SearchHit struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Architecture  string   `json:"architecture"`
	Parameters    int64    `json:"parameters"`
	Tags          []string `json:"tags"`
	VersionCount  int      `json:"version_count"`
	AvgAccuracy   *float64 `json:"avg_accuracy"`
	AvgThroughput *float64 `json:"avg_throughput"`
}
