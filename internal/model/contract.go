package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Contract struct {
	ID                 uuid.UUID
	Number             string
	ContractTypeID     uuid.UUID
	ContractTemplateID uuid.UUID
	UnitCode           string
	ContractorName     string
	Status             DocumentStatus
	Lines              []DocumentLine `gorm:"-"`
	TotalAmount        decimal.Decimal
	CreatedBy          uuid.UUID
	CreatedAt          time.Time
}
