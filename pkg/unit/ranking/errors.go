package ranking

import "github.com/jguan/model-catalog/pkg/unit"

var (
	ErrInvalidWeights  = unit.NewDomainError("ranking", unit.ErrCodeInvalidWeights, "invalid weights")
	ErrInvalidCriteria = unit.NewDomainError("ranking", unit.ErrCodeInvalidCriteria, "invalid criteria")
	ErrInvalidMatrix   = unit.NewDomainError("ranking", unit.ErrCodeInvalidMatrix, "invalid decision matrix")
	ErrInvalidInput    = unit.NewDomainError("ranking", unit.ErrCodeInvalidInput, "invalid input")
)
