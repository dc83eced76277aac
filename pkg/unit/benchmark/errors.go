package benchmark

import "github.com/jguan/model-catalog/pkg/unit"

var (
	ErrBenchmarkNotFound = unit.NewDomainError("benchmark", unit.ErrCodeBenchmarkNotFound, "benchmark not found")
	ErrBenchmarkInvalid  = unit.NewDomainError("benchmark", unit.ErrCodeBenchmarkInvalid, "invalid benchmark result")
	ErrBenchmarkExists   = unit.NewDomainError("benchmark", unit.ErrCodeAlreadyExists, "benchmark already exists")
	ErrInvalidInput      = unit.NewDomainError("benchmark", unit.ErrCodeInvalidInput, "invalid input")
	ErrStoreNotSet       = unit.NewError(unit.ErrCodeInternalError, "benchmark store not set")
)
