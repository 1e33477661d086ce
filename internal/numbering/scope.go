package numbering

import (
	"fmt"
	"strings"

	"github.com/nurpe/podryad/internal/apperr"
)

type Kind string

const (
	KindContract Kind = "contract"
	KindAct      Kind = "act"
)

// Scope identifies one numbering sequence.
type Scope struct {
	Kind     Kind
	UnitCode string
	Year     int
	Contract string
}

// ContractScope is the sequence of contracts of a structural unit in a calendar year.
func ContractScope(unitCode string, year int) (Scope, error) {
	unitCode = strings.TrimSpace(unitCode)
	if unitCode == "" {
		return Scope{}, apperr.Validation("structural unit code is required")
	}
	if year < 1 {
		return Scope{}, apperr.Validation("year %d is invalid", year)
	}
	return Scope{Kind: KindContract, UnitCode: unitCode, Year: year}, nil
}

// ActScope is the sequence of acts under one contract.
func ActScope(contractNumber string) (Scope, error) {
	contractNumber = strings.TrimSpace(contractNumber)
	if contractNumber == "" {
		return Scope{}, apperr.Validation("contract number is required")
	}
	return Scope{Kind: KindAct, Contract: contractNumber}, nil
}

// Key is the counter row key.
func (s Scope) Key() string {
	switch s.Kind {
	case KindContract:
		return fmt.Sprintf("contract:%s:%04d", s.UnitCode, s.Year)
	case KindAct:
		return "act:" + s.Contract
	default:
		return ""
	}
}

// Format renders a sequence value: "02/25/11118" for contracts, "003" for acts.
func (s Scope) Format(sequence int) string {
	switch s.Kind {
	case KindContract:
		return fmt.Sprintf("%02d/%02d/%s", sequence, s.Year%100, s.UnitCode)
	case KindAct:
		return fmt.Sprintf("%03d", sequence)
	default:
		return fmt.Sprint(sequence)
	}
}

type Number struct {
	Scope     Scope
	Sequence  int
	Formatted string
}

func (n Number) String() string {
	return n.Formatted
}
