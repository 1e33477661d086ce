package costing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/model"
)

type LineInput struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

type Result struct {
	Lines []model.DocumentLine
	Total decimal.Decimal
}

// Evaluate prices lines without any editing rules. The first line is
// treated as the main service.
func Evaluate(variant Variant, inputs []LineInput) (Result, error) {
	if len(inputs) == 0 {
		return Result{}, apperr.Validation("a document must keep at least one line")
	}
	if len(inputs) > MaxLines {
		return Result{}, apperr.Validation("maximum %d reached", MaxLines)
	}

	result := Result{
		Lines: make([]model.DocumentLine, 0, len(inputs)),
		Total: decimal.Zero,
	}
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return Result{}, apperr.Validation("line %d: work/service name is required", i+1)
		}
		if in.Quantity.IsNegative() || in.UnitPrice.IsNegative() {
			return Result{}, apperr.Validation("line %d: quantity and price must not be negative", i+1)
		}
		quantity := variant.Quantity(in.Quantity)
		amount := variant.Amount(quantity, in.UnitPrice)
		result.Lines = append(result.Lines, model.DocumentLine{
			Position:     i + 1,
			Name:         name,
			Quantity:     quantity,
			UnitPrice:    in.UnitPrice,
			Amount:       amount,
			FromContract: i == 0,
		})
		result.Total = result.Total.Add(amount)
	}
	return result, nil
}
