package hardware

import (
	"fmt"
	"math"
)

var bytesPerParam = map[Quantization]float64{
	QuantFP32: 4.0,
	QuantFP16: 2.0,
	QuantBF16: 2.0,
	QuantINT8: 1.0,
	QuantINT4: 0.5,
	QuantAWQ:  0.5,
	QuantGPTQ: 0.5,
}

var supportedQuantizations = []Quantization{
	QuantFP32, QuantFP16, QuantBF16, QuantINT8, QuantINT4, QuantAWQ, QuantGPTQ,
}

var comparisonSet = []Quantization{QuantFP32, QuantFP16, QuantINT8, QuantINT4}

// SupportedQuantizations lists every known scheme, widest first.
func SupportedQuantizations() []Quantization {
	out := make([]Quantization, len(supportedQuantizations))
	copy(out, supportedQuantizations)
	return out
}

// BytesPerParam reports the storage cost of one parameter under q.
func BytesPerParam(q Quantization) (float64, bool) {
	b, ok := bytesPerParam[q]
	return b, ok
}

// EstimateVRAM returns the GPU memory in GB needed to serve a model.
//
// The estimate is weights times a flat 20% overhead, grown by 10% for every
// request beyond the first in a batch. sequenceLength is validated but not
// used by the formula.
func EstimateVRAM(parameters int64, q Quantization, batchSize, sequenceLength int) (float64, error) {
	bpp, ok := bytesPerParam[q]
	if !ok {
		return 0, ErrInvalidQuantization.WithDetails("quantization", string(q))
	}
	if parameters <= 0 {
		return 0, fmt.Errorf("parameters must be positive, got %d: %w", parameters, ErrInvalidInput)
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch_size must be at least 1, got %d: %w", batchSize, ErrInvalidInput)
	}
	if sequenceLength < 1 {
		return 0, fmt.Errorf("sequence_length must be at least 1, got %d: %w", sequenceLength, ErrInvalidInput)
	}

	gb := float64(parameters) * bpp / bytesPerGB * overheadFactor
	if batchSize > 1 {
		gb *= 1 + batchOverheadPerUnit*float64(batchSize-1)
	}
	return round(gb, 2), nil
}

// CompareQuantizations estimates batch-1 memory for fp32, fp16, int8 and
// int4, in that order.
func CompareQuantizations(parameters int64) ([]QuantizationEstimate, error) {
	out := make([]QuantizationEstimate, 0, len(comparisonSet))
	for _, q := range comparisonSet {
		gb, err := EstimateVRAM(parameters, q, 1, DefaultSequenceLength)
		if err != nil {
			return nil, err
		}
		out = append(out, QuantizationEstimate{Quantization: q, VRAMGB: gb})
	}
	return out, nil
}

// EstimateMaxBatchSize returns the largest batch in 1..MaxBatchSize whose
// estimate fits availableGB. It returns 1 even when a single request does
// not fit; callers that care must check EstimateVRAM for batch 1.
func EstimateMaxBatchSize(parameters int64, q Quantization, availableGB float64, sequenceLength int) (int, error) {
	best := 1
	for b := 1; b <= MaxBatchSize; b++ {
		gb, err := EstimateVRAM(parameters, q, b, sequenceLength)
		if err != nil {
			return 0, err
		}
		if gb > availableGB {
			break
		}
		best = b
	}
	return best, nil
}

// round rounds half to even, so 0.125 becomes 0.12.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
