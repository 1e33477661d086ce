package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractTemplate lists the work/service names allowed for a contract type.
// The first name is mandatory and never changes.
type ContractTemplate struct {
	ID               uuid.UUID
	Name             string
	ContractTypeID   uuid.UUID
	WorkServiceNames []string `gorm:"-"`
	CreatedAt        time.Time
}

type PricedService struct {
	Position int
	Name     string
	UnitCost decimal.Decimal
}

type ActTemplate struct {
	ID                 uuid.UUID
	Name               string
	ContractTypeID     uuid.UUID
	ContractTemplateID *uuid.UUID      // nil for legacy rows linked by name
	WorkServices       []PricedService `gorm:"-"`
	DepartmentID       *uuid.UUID
	TotalCost          decimal.Decimal
	CreatedAt          time.Time
}

// ContractTemplateSummary is a listing row with its dependency state.
type ContractTemplateSummary struct {
	ContractTemplate
	DependentCount int
	// NoPricedWork flags templates without act templates: nothing can be priced from them.
	NoPricedWork bool
}
