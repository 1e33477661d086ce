// Package contracttype holds the three contract variants and their display metadata.
package contracttype

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/model"
)

type Code string

const (
	Operation Code = "operation"
	NormHour  Code = "norm-hour"
	Cost      Code = "cost"
)

var Codes = []Code{Operation, NormHour, Cost}

var unitLabels = map[Code]string{
	Operation: "опер.",
	NormHour:  "час",
	Cost:      "усл.",
}

func ParseCode(raw string) (Code, error) {
	code := Code(raw)
	if _, ok := unitLabels[code]; !ok {
		return "", apperr.Configuration("unknown contract type code %q", raw)
	}
	return code, nil
}

func (c Code) UnitLabel() string {
	return unitLabels[c]
}

type Descriptor struct {
	ID               uuid.UUID
	Code             Code
	Name             string
	Description      string
	UnitLabel        string
	DefaultUnitPrice decimal.Decimal
}

// Registry resolves contract types loaded from the contract_types table.
type Registry struct {
	byCode map[Code]Descriptor
	byID   map[uuid.UUID]Code
}

func NewRegistry(types []model.ContractType) (*Registry, error) {
	r := &Registry{
		byCode: make(map[Code]Descriptor, len(types)),
		byID:   make(map[uuid.UUID]Code, len(types)),
	}
	for _, t := range types {
		code, err := ParseCode(t.Code)
		if err != nil {
			return nil, err
		}
		label := t.UnitLabel
		if label == "" {
			label = code.UnitLabel()
		}
		r.byCode[code] = Descriptor{
			ID:               t.ID,
			Code:             code,
			Name:             t.Name,
			Description:      t.Description,
			UnitLabel:        label,
			DefaultUnitPrice: t.DefaultUnitPrice,
		}
		r.byID[t.ID] = code
	}
	for _, code := range Codes {
		if _, ok := r.byCode[code]; !ok {
			return nil, apperr.Configuration("contract type %q is not seeded", code)
		}
	}
	return r, nil
}

func (r *Registry) Describe(code Code) (Descriptor, error) {
	d, ok := r.byCode[code]
	if !ok {
		return Descriptor{}, apperr.Configuration("unknown contract type code %q", code)
	}
	return d, nil
}

func (r *Registry) ForID(id uuid.UUID) (Code, error) {
	code, ok := r.byID[id]
	if !ok {
		return "", apperr.Configuration("unknown contract type id %s", id)
	}
	return code, nil
}

// DescribeID is ForID followed by Describe.
func (r *Registry) DescribeID(id uuid.UUID) (Descriptor, error) {
	code, err := r.ForID(id)
	if err != nil {
		return Descriptor{}, err
	}
	return r.Describe(code)
}

// All returns the descriptors in declaration order.
func (r *Registry) All() []Descriptor {
	result := make([]Descriptor, 0, len(Codes))
	for _, code := range Codes {
		result = append(result, r.byCode[code])
	}
	return result
}
