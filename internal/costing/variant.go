// Package costing prices work/service lines for each contract variant and
// keeps document totals in step with line edits.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/contracttype"
)

// Variant is the closed set of pricing behaviours. Resolve it once with
// VariantFor and pass it around instead of the raw code.
type Variant interface {
	Code() contracttype.Code
	UnitLabel() string
	QuantityEditable() bool
	// Quantity maps an entered quantity to the one used for pricing.
	Quantity(entered decimal.Decimal) decimal.Decimal
	Amount(quantity, unitPrice decimal.Decimal) decimal.Decimal
	variant()
}

// perUnit covers operation and norm-hour: amount = quantity × unit price.
type perUnit struct {
	code contracttype.Code
}

func (v perUnit) Code() contracttype.Code { return v.code }
func (v perUnit) UnitLabel() string       { return v.code.UnitLabel() }
func (v perUnit) QuantityEditable() bool  { return true }
func (perUnit) variant()                  {}

func (v perUnit) Quantity(entered decimal.Decimal) decimal.Decimal {
	return entered
}

func (v perUnit) Amount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// fixedCost is the cost variant: the line price is the line amount.
type fixedCost struct{}

func (fixedCost) Code() contracttype.Code { return contracttype.Cost }
func (fixedCost) UnitLabel() string       { return contracttype.Cost.UnitLabel() }
func (fixedCost) QuantityEditable() bool  { return false }
func (fixedCost) variant()                {}

func (fixedCost) Quantity(decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1)
}

func (fixedCost) Amount(_, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Round(2)
}

var (
	OperationVariant Variant = perUnit{code: contracttype.Operation}
	NormHourVariant  Variant = perUnit{code: contracttype.NormHour}
	CostVariant      Variant = fixedCost{}
)

func VariantFor(code contracttype.Code) (Variant, error) {
	switch code {
	case contracttype.Operation:
		return OperationVariant, nil
	case contracttype.NormHour:
		return NormHourVariant, nil
	case contracttype.Cost:
		return CostVariant, nil
	default:
		return nil, apperr.Configuration("no pricing for contract type %q", code)
	}
}

// Redistribute splits total evenly over n lines, each part rounded to
// kopecks. The parts may not add back up to total.
func Redistribute(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	part := total.DivRound(decimal.NewFromInt(int64(n)), 2)
	parts := make([]decimal.Decimal, n)
	for i := range parts {
		parts[i] = part
	}
	return parts
}
