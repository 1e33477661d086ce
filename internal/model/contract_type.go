package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractType is seeded reference data, one row per contract variant.
type ContractType struct {
	ID               uuid.UUID
	Code             string
	Name             string
	Description      string
	UnitLabel        string
	DefaultUnitPrice decimal.Decimal
}
