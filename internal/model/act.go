package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DocumentStatus string

const (
	// DocumentStatusDraft is an unsaved document still being edited.
	DocumentStatusDraft DocumentStatus = "draft"
	// DocumentStatusIssued documents are numbered, persisted and immutable.
	DocumentStatusIssued DocumentStatus = "issued"
)

// DocumentLine is a copy of a work/service line taken when the document was built.
type DocumentLine struct {
	Position     int
	Name         string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal
	FromContract bool
}

type Act struct {
	ID            uuid.UUID
	Number        string
	ContractID    uuid.UUID
	ActTemplateID uuid.UUID
	Status        DocumentStatus
	Lines         []DocumentLine `gorm:"-"`
	TotalAmount   decimal.Decimal
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// ActDocument is everything the printed act needs.
type ActDocument struct {
	Act          Act
	Contract     Contract
	ContractType ContractType
	UnitLabel    string
	AmountWords  string
}
