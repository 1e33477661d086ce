package costing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
)

// NumberParser reads quantities and prices typed by users. Lenient mode
// turns anything unparsable or negative into zero instead of failing.
type NumberParser struct {
	Lenient bool
}

func (p NumberParser) Quantity(raw string) (decimal.Decimal, error) {
	return p.parse("quantity", raw)
}

func (p NumberParser) Price(raw string) (decimal.Decimal, error) {
	return p.parse("price", raw)
}

func (p NumberParser) parse(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		if p.Lenient {
			return decimal.Zero, nil
		}
		return decimal.Zero, apperr.Validation("%s %q is not a number", field, raw)
	}
	if value.IsNegative() {
		if p.Lenient {
			return decimal.Zero, nil
		}
		return decimal.Zero, apperr.Validation("%s must not be negative", field)
	}
	return value, nil
}
