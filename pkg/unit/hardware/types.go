package hardware

// Quantization is a weight storage scheme.
type Quantization string

const (
	QuantFP32 Quantization = "fp32"
	QuantFP16 Quantization = "fp16"
	QuantBF16 Quantization = "bf16"
	QuantINT8 Quantization = "int8"
	QuantINT4 Quantization = "int4"
	QuantAWQ  Quantization = "awq"
	QuantGPTQ Quantization = "gptq"
)

const (
	// DefaultSequenceLength is accepted for interface stability; the
	// estimate does not depend on it.
	DefaultSequenceLength = 2048
	MaxBatchSize          = 64
	MaxGPUCount           = 8

	overheadFactor       = 1.2
	batchOverheadPerUnit = 0.10
	spotPriceFactor      = 0.25
	bytesPerGB           = 1e9
)

// CatalogEntry is one GPU SKU in the fixed hardware catalog.
type CatalogEntry struct {
	GPUType       string  `json:"gpu_type"`
	VRAMPerGPUGB  float64 `json:"vram_per_gpu_gb"`
	CostPerHour   float64 `json:"cost_per_hour_usd"`
	SpotAvailable bool    `json:"spot_available"`
}

// GPUConfig is a feasible configuration returned by the matcher.
type GPUConfig struct {
	GPUType        string  `json:"gpu_type"`
	Count          int     `json:"count"`
	VRAMPerGPUGB   float64 `json:"vram_per_gpu_gb"`
	TotalVRAMGB    float64 `json:"total_vram_gb"`
	UtilizationPct float64 `json:"utilization_pct"`
	CostPerHourUSD float64 `json:"cost_per_hour_usd"`
	SpotAvailable  bool    `json:"spot_available"`
}

// RecommendOptions tunes Matcher.Recommend. MaxCostPerHour nil means no cap.
type RecommendOptions struct {
	PreferSpot     bool
	MaxCostPerHour *float64
	StrictSpot     bool
}

type QuantizationEstimate struct {
	Quantization Quantization `json:"quantization"`
	VRAMGB       float64      `json:"vram_gb"`
}

type SpotSavings struct {
	GPUType          string  `json:"gpu_type"`
	Count            int     `json:"count"`
	OnDemandCostHour float64 `json:"on_demand_cost_per_hour"`
	SpotCostHour     float64 `json:"spot_cost_per_hour"`
	SavingsPerHour   float64 `json:"savings_per_hour"`
	SavingsPercent   float64 `json:"savings_percent"`
}
