package recommend

import "github.com/jguan/model-catalog/pkg/unit"

var (
	ErrInvalidRequest = unit.NewDomainError("recommend", unit.ErrCodeRecommendInvalidRequest, "invalid recommendation request")
	ErrInvalidWeights = unit.NewDomainError("recommend", unit.ErrCodeInvalidWeights, "weights must each be within [0, 1] and sum to 1.0")
	ErrSourceNotSet   = unit.NewError(unit.ErrCodeInternalError, "recommendation sources not set")
)
