package costing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/model"
)

// MaxLines is the most work/service lines a document may carry.
const MaxLines = 5

// Screen is the authoring context a sheet is edited in.
type Screen int

const (
	ScreenAgreement Screen = iota
	ScreenAct
)

// Sheet is the editable line list of a contract or act. Every mutation
// either succeeds and recomputes the total or fails leaving the sheet as it was.
type Sheet struct {
	variant Variant
	screen  Screen
	role    model.Role
	lines   []model.DocumentLine
	total   decimal.Decimal
}

// NewSheet starts a sheet with the template's main service as its first line.
func NewSheet(variant Variant, screen Screen, role model.Role, mainService string, unitPrice decimal.Decimal) (*Sheet, error) {
	s := &Sheet{variant: variant, screen: screen, role: role}
	if err := s.Seed(mainService, unitPrice); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed appends a line copied from the originating template. Seeded lines
// keep their name and price and ignore the acting role.
func (s *Sheet) Seed(name string, unitPrice decimal.Decimal) error {
	return s.append(name, unitPrice, true)
}

// AddLine appends a user-defined line.
func (s *Sheet) AddLine(name string, unitPrice decimal.Decimal) error {
	if len(s.lines) >= MaxLines {
		return apperr.Validation("maximum %d reached", MaxLines)
	}
	if !s.role.CanAuthor() {
		return apperr.ErrPermissionDenied
	}
	return s.append(name, unitPrice, false)
}

func (s *Sheet) append(name string, unitPrice decimal.Decimal, fromContract bool) error {
	if len(s.lines) >= MaxLines {
		return apperr.Validation("maximum %d reached", MaxLines)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("work/service name is required")
	}
	if unitPrice.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	quantity := s.variant.Quantity(decimal.Zero)
	s.lines = append(s.lines, model.DocumentLine{
		Name:         name,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		FromContract: fromContract,
	})
	s.recompute()
	return nil
}

func (s *Sheet) RemoveLine(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if len(s.lines) == 1 {
		return apperr.Validation("a document must keep at least one line")
	}
	if i == 0 {
		return apperr.Validation("the main service line cannot be removed")
	}
	if !s.role.CanAuthor() {
		return apperr.ErrPermissionDenied
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	s.recompute()
	return nil
}

func (s *Sheet) SetQuantity(i int, quantity decimal.Decimal) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if !s.variant.QuantityEditable() {
		return apperr.Validation("quantity is fixed for %s contracts", s.variant.Code())
	}
	if !s.CanEditQuantity(i) {
		return apperr.ErrPermissionDenied
	}
	if quantity.IsNegative() {
		return apperr.Validation("quantity must not be negative")
	}
	s.lines[i].Quantity = s.variant.Quantity(quantity)
	s.recompute()
	return nil
}

func (s *Sheet) SetUnitPrice(i int, unitPrice decimal.Decimal) error {
	if err := s.checkNameAndPrice(i); err != nil {
		return err
	}
	if unitPrice.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	s.lines[i].UnitPrice = unitPrice
	s.recompute()
	return nil
}

func (s *Sheet) Rename(i int, name string) error {
	if err := s.checkNameAndPrice(i); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("work/service name is required")
	}
	s.lines[i].Name = name
	return nil
}

// CanEditNameAndPrice: template lines never, other lines for managers and admins.
func (s *Sheet) CanEditNameAndPrice(i int) bool {
	if i < 0 || i >= len(s.lines) {
		return false
	}
	return !s.lines[i].FromContract && s.role.CanAuthor()
}

func (s *Sheet) CanEditQuantity(i int) bool {
	if i < 0 || i >= len(s.lines) || !s.variant.QuantityEditable() {
		return false
	}
	if s.screen == ScreenAct {
		return true
	}
	return s.role.CanAuthor()
}

func (s *Sheet) checkNameAndPrice(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if s.lines[i].FromContract {
		return apperr.Validation("line %q comes from the contract template and is read-only", s.lines[i].Name)
	}
	if !s.role.CanAuthor() {
		return apperr.ErrPermissionDenied
	}
	return nil
}

func (s *Sheet) checkIndex(i int) error {
	if i < 0 || i >= len(s.lines) {
		return apperr.Validation("line %d does not exist", i+1)
	}
	return nil
}

func (s *Sheet) recompute() {
	total := decimal.Zero
	for i := range s.lines {
		s.lines[i].Position = i + 1
		s.lines[i].Amount = s.variant.Amount(s.lines[i].Quantity, s.lines[i].UnitPrice)
		total = total.Add(s.lines[i].Amount)
	}
	s.total = total
}

func (s *Sheet) Variant() Variant {
	return s.variant
}

func (s *Sheet) Len() int {
	return len(s.lines)
}

// Lines returns a copy of the current lines.
func (s *Sheet) Lines() []model.DocumentLine {
	lines := make([]model.DocumentLine, len(s.lines))
	copy(lines, s.lines)
	return lines
}

func (s *Sheet) Total() decimal.Decimal {
	return s.total
}
