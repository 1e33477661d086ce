package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/podryad/internal/contracttype"
	"github.com/nurpe/podryad/internal/model"
)

type contractTypeResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	UnitLabel        string    `json:"unit_label"`
	DefaultUnitPrice string    `json:"default_unit_price"`
}

func toContractTypeResponse(d contracttype.Descriptor) contractTypeResponse {
	return contractTypeResponse{
		ID:               d.ID,
		Code:             string(d.Code),
		Name:             d.Name,
		Description:      d.Description,
		UnitLabel:        d.UnitLabel,
		DefaultUnitPrice: d.DefaultUnitPrice.StringFixed(2),
	}
}

type contractTemplateResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ContractTypeID uuid.UUID `json:"contract_type_id"`
	WorkServices   []string  `json:"work_services"`
	CreatedAt      time.Time `json:"created_at"`
	DependentCount *int      `json:"dependent_count,omitempty"`
	NoPricedWork   bool      `json:"no_priced_work,omitempty"`
}

func toContractTemplateResponse(t model.ContractTemplate) contractTemplateResponse {
	names := t.WorkServiceNames
	if names == nil {
		names = []string{}
	}
	return contractTemplateResponse{
		ID:             t.ID,
		Name:           t.Name,
		ContractTypeID: t.ContractTypeID,
		WorkServices:   names,
		CreatedAt:      t.CreatedAt,
	}
}

type pricedServiceResponse struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	UnitCost string `json:"unit_cost"`
}

type actTemplateResponse struct {
	ID                 uuid.UUID               `json:"id"`
	Name               string                  `json:"name"`
	ContractTypeID     uuid.UUID               `json:"contract_type_id"`
	ContractTemplateID *uuid.UUID              `json:"contract_template_id"`
	DepartmentID       *uuid.UUID              `json:"department_id,omitempty"`
	WorkServices       []pricedServiceResponse `json:"work_services"`
	TotalCost          string                  `json:"total_cost"`
	CreatedAt          time.Time               `json:"created_at"`
}

func toActTemplateResponse(t model.ActTemplate) actTemplateResponse {
	services := make([]pricedServiceResponse, 0, len(t.WorkServices))
	for i, s := range t.WorkServices {
		position := s.Position
		if position == 0 {
			position = i + 1
		}
		services = append(services, pricedServiceResponse{
			Position: position,
			Name:     s.Name,
			UnitCost: s.UnitCost.StringFixed(2),
		})
	}
	return actTemplateResponse{
		ID:                 t.ID,
		Name:               t.Name,
		ContractTypeID:     t.ContractTypeID,
		ContractTemplateID: t.ContractTemplateID,
		DepartmentID:       t.DepartmentID,
		WorkServices:       services,
		TotalCost:          t.TotalCost.StringFixed(2),
		CreatedAt:          t.CreatedAt,
	}
}

type lineResponse struct {
	Position     int    `json:"position"`
	Name         string `json:"name"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Amount       string `json:"amount"`
	FromContract bool   `json:"from_contract"`
}

func toLineResponses(lines []model.DocumentLine) []lineResponse {
	result := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		result = append(result, lineResponse{
			Position:     l.Position,
			Name:         l.Name,
			Quantity:     l.Quantity.String(),
			UnitPrice:    l.UnitPrice.StringFixed(2),
			Amount:       l.Amount.StringFixed(2),
			FromContract: l.FromContract,
		})
	}
	return result
}

type contractResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Number             string         `json:"number"`
	ContractTypeID     uuid.UUID      `json:"contract_type_id"`
	ContractTemplateID uuid.UUID      `json:"contract_template_id"`
	UnitCode           string         `json:"unit_code"`
	ContractorName     string         `json:"contractor_name"`
	Status             string         `json:"status"`
	Lines              []lineResponse `json:"lines"`
	TotalAmount        string         `json:"total_amount"`
	CreatedBy          uuid.UUID      `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
}

func toContractResponse(c model.Contract) contractResponse {
	return contractResponse{
		ID:                 c.ID,
		Number:             c.Number,
		ContractTypeID:     c.ContractTypeID,
		ContractTemplateID: c.ContractTemplateID,
		UnitCode:           c.UnitCode,
		ContractorName:     c.ContractorName,
		Status:             string(c.Status),
		Lines:              toLineResponses(c.Lines),
		TotalAmount:        c.TotalAmount.StringFixed(2),
		CreatedBy:          c.CreatedBy,
		CreatedAt:          c.CreatedAt,
	}
}

type actResponse struct {
	ID            uuid.UUID      `json:"id"`
	Number        string         `json:"number"`
	ContractID    uuid.UUID      `json:"contract_id"`
	ActTemplateID uuid.UUID      `json:"act_template_id"`
	Status        string         `json:"status"`
	Lines         []lineResponse `json:"lines"`
	TotalAmount   string         `json:"total_amount"`
	CreatedBy     uuid.UUID      `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

func toActResponse(a model.Act) actResponse {
	return actResponse{
		ID:            a.ID,
		Number:        a.Number,
		ContractID:    a.ContractID,
		ActTemplateID: a.ActTemplateID,
		Status:        string(a.Status),
		Lines:         toLineResponses(a.Lines),
		TotalAmount:   a.TotalAmount.StringFixed(2),
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
	}
}
