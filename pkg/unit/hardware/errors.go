package hardware

import "github.com/jguan/model-catalog/pkg/unit"

var (
	ErrInvalidQuantization = unit.NewDomainError("hardware", unit.ErrCodeInvalidQuantization, "invalid quantization")
	ErrGPUTypeNotFound     = unit.NewDomainError("hardware", unit.ErrCodeGPUTypeNotFound, "gpu type not found")
	ErrInvalidInput        = unit.NewDomainError("hardware", unit.ErrCodeInvalidInput, "invalid input")
)
