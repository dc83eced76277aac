package model

import "github.com/jguan/model-catalog/pkg/unit"

var (
	ErrModelNotFound      = unit.NewDomainError("model", unit.ErrCodeModelNotFound, "model not found")
	ErrModelAlreadyExists = unit.NewDomainError("model", unit.ErrCodeModelAlreadyExists, "model already exists")
	ErrVersionNotFound    = unit.NewDomainError("model", unit.ErrCodeVersionNotFound, "model version not found")
	ErrVersionExists      = unit.NewDomainError("model", unit.ErrCodeVersionExists, "model version already exists")

	ErrInvalidInput = unit.NewDomainError("model", unit.ErrCodeInvalidInput, "invalid input")
	ErrStoreNotSet  = unit.NewError(unit.ErrCodeInternalError, "model store not set")
)
