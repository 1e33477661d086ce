package costing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/model"
)

// PriceList is the cost side of an act template. For cost contracts the
// total is authoritative and unit costs are its equal split; for the other
// variants unit costs are authoritative and the total is only stored.
type PriceList struct {
	variant  Variant
	services []model.PricedService
	total    decimal.Decimal
}

// NewPriceList prices every name at zero.
func NewPriceList(variant Variant, names []string) (*PriceList, error) {
	if len(names) == 0 {
		return nil, apperr.Validation("at least one work/service is required")
	}
	if len(names) > MaxLines {
		return nil, apperr.Validation("maximum %d reached", MaxLines)
	}
	p := &PriceList{
		variant:  variant,
		services: make([]model.PricedService, 0, len(names)),
		total:    decimal.Zero,
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperr.Validation("work/service %d has no name", i+1)
		}
		p.services = append(p.services, model.PricedService{Position: i + 1, Name: name, UnitCost: decimal.Zero})
	}
	return p, nil
}

// LoadPriceList wraps already stored services.
func LoadPriceList(variant Variant, services []model.PricedService, total decimal.Decimal) (*PriceList, error) {
	if len(services) == 0 {
		return nil, apperr.Validation("at least one work/service is required")
	}
	p := &PriceList{variant: variant, services: make([]model.PricedService, len(services)), total: total}
	copy(p.services, services)
	return p, nil
}

func (p *PriceList) SetUnitCost(i int, cost decimal.Decimal) error {
	if i < 0 || i >= len(p.services) {
		return apperr.Validation("work/service %d does not exist", i+1)
	}
	if p.variant.Code() == CostVariant.Code() {
		return apperr.Validation("unit costs of a cost contract follow the total; edit the total instead")
	}
	if cost.IsNegative() {
		return apperr.Validation("cost must not be negative")
	}
	p.services[i].UnitCost = cost
	return nil
}

// SetUnitCosts applies costs positionally and fails without changes if any is rejected.
func (p *PriceList) SetUnitCosts(costs []decimal.Decimal) error {
	if len(costs) != len(p.services) {
		return apperr.Validation("expected %d costs, got %d", len(p.services), len(costs))
	}
	backup := p.Services()
	for i, cost := range costs {
		if err := p.SetUnitCost(i, cost); err != nil {
			p.services = backup
			return err
		}
	}
	return nil
}

func (p *PriceList) SetTotal(total decimal.Decimal) error {
	if total.IsNegative() {
		return apperr.Validation("total cost must not be negative")
	}
	p.total = total
	if p.variant.Code() != CostVariant.Code() {
		return nil
	}
	for i, part := range Redistribute(total, len(p.services)) {
		p.services[i].UnitCost = part
	}
	return nil
}

func (p *PriceList) Services() []model.PricedService {
	services := make([]model.PricedService, len(p.services))
	copy(services, p.services)
	return services
}

func (p *PriceList) Total() decimal.Decimal {
	return p.total
}

// UnitCost looks a price up by work/service name.
func (p *PriceList) UnitCost(name string) (decimal.Decimal, bool) {
	for _, s := range p.services {
		if s.Name == name {
			return s.UnitCost, true
		}
	}
	return decimal.Zero, false
}
