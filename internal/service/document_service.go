package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/amountwords"
	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/contracttype"
	"github.com/nurpe/podryad/internal/costing"
	"github.com/nurpe/podryad/internal/model"
	"github.com/nurpe/podryad/internal/numbering"
	"github.com/nurpe/podryad/internal/repository"
)

// ActRenderer produces a file representation of an act.
type ActRenderer interface {
	Generate(doc model.ActDocument) ([]byte, error)
}

type DocumentService struct {
	templates *repository.TemplateRepository
	documents *repository.DocumentRepository
	registry  *contracttype.Registry
	numbers   *numbering.Authority
	words     amountwords.Formatter
	parser    costing.NumberParser
	pdf       ActRenderer
	excel     ActRenderer
	log       zerolog.Logger
	now       func() time.Time
}

type DocumentServiceDeps struct {
	Templates *repository.TemplateRepository
	Documents *repository.DocumentRepository
	Registry  *contracttype.Registry
	Numbers   *numbering.Authority
	Words     amountwords.Formatter
	Parser    costing.NumberParser
	PDF       ActRenderer
	Excel     ActRenderer
}

func NewDocumentService(deps DocumentServiceDeps, log zerolog.Logger) *DocumentService {
	words := deps.Words
	if words == nil {
		words = amountwords.Rubles{}
	}
	return &DocumentService{
		templates: deps.Templates,
		documents: deps.Documents,
		registry:  deps.Registry,
		numbers:   deps.Numbers,
		words:     words,
		parser:    deps.Parser,
		pdf:       deps.PDF,
		excel:     deps.Excel,
		log:       log,
		now:       time.Now,
	}
}

// LineRequest is a line as typed by the user. On position 0 only the
// quantity is used: the main service comes from the template.
type LineRequest struct {
	Name      string
	Quantity  string
	UnitPrice string
}

type CreateContractInput struct {
	ContractTemplateID uuid.UUID
	// ActTemplateID selects the prices; without it the type's default price is used.
	ActTemplateID  *uuid.UUID
	UnitCode       string
	ContractorName string
	Date           time.Time
	Lines          []LineRequest
	Principal      model.Principal
}

type CreateActInput struct {
	ContractID    uuid.UUID
	ActTemplateID uuid.UUID
	Lines         []LineRequest
	Principal     model.Principal
}

type PreviewInput struct {
	ContractType string
	Lines        []LineRequest
}

type PreviewResult struct {
	ContractType contracttype.Code
	UnitLabel    string
	Lines        []model.DocumentLine
	Total        decimal.Decimal
	AmountWords  string
}

type FileResult struct {
	FileName string
	Content  []byte
}

// PreviewContractNumber shows the number the next contract of the unit
// would get in the year of date. Nothing is reserved.
func (s *DocumentService) PreviewContractNumber(ctx context.Context, unitCode string, date time.Time) (string, error) {
	if date.IsZero() {
		date = s.now()
	}
	scope, err := numbering.ContractScope(unitCode, date.Year())
	if err != nil {
		return "", err
	}
	number, err := s.numbers.Next(ctx, scope)
	if err != nil {
		return "", err
	}
	return number.Formatted, nil
}

func (s *DocumentService) PreviewActNumber(ctx context.Context, contractID uuid.UUID) (string, error) {
	contract, err := s.documents.GetContract(ctx, contractID)
	if err != nil {
		return "", storeError(err, "contract")
	}
	scope, err := numbering.ActScope(contract.Number)
	if err != nil {
		return "", err
	}
	number, err := s.numbers.Next(ctx, scope)
	if err != nil {
		return "", err
	}
	return number.Formatted, nil
}

// Preview prices lines and spells the total without storing anything.
func (s *DocumentService) Preview(ctx context.Context, input PreviewInput) (*PreviewResult, error) {
	code, err := contracttype.ParseCode(strings.TrimSpace(input.ContractType))
	if err != nil {
		return nil, apperr.Validation("unknown contract type %q", input.ContractType)
	}
	variant, err := costing.VariantFor(code)
	if err != nil {
		return nil, err
	}

	inputs := make([]costing.LineInput, 0, len(input.Lines))
	for i, line := range input.Lines {
		quantity, err := s.parser.Quantity(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		price, err := s.parser.Price(line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		inputs = append(inputs, costing.LineInput{Name: line.Name, Quantity: quantity, UnitPrice: price})
	}

	result, err := costing.Evaluate(variant, inputs)
	if err != nil {
		return nil, err
	}
	words, err := s.words.Format(result.Total)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		ContractType: code,
		UnitLabel:    variant.UnitLabel(),
		Lines:        result.Lines,
		Total:        result.Total,
		AmountWords:  words,
	}, nil
}

// CreateContract builds the agreement from its template and stores it
// under a freshly issued number.
func (s *DocumentService) CreateContract(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	contractorName := strings.TrimSpace(input.ContractorName)
	if contractorName == "" {
		return nil, apperr.Validation("contractor name is required")
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	scope, err := numbering.ContractScope(input.UnitCode, date.Year())
	if err != nil {
		return nil, err
	}

	tpl, err := s.templates.GetContractTemplate(ctx, input.ContractTemplateID)
	if err != nil {
		return nil, storeError(err, "contract template")
	}
	if len(tpl.WorkServiceNames) == 0 {
		return nil, apperr.Validation("contract template %q has no work/services", tpl.Name)
	}
	descriptor, err := s.registry.DescribeID(tpl.ContractTypeID)
	if err != nil {
		return nil, err
	}
	variant, err := costing.VariantFor(descriptor.Code)
	if err != nil {
		return nil, err
	}

	mainPrice := descriptor.DefaultUnitPrice
	var prices *costing.PriceList
	if input.ActTemplateID != nil {
		at, err := s.actTemplateFor(ctx, *input.ActTemplateID, *tpl)
		if err != nil {
			return nil, err
		}
		prices, err = costing.LoadPriceList(variant, at.WorkServices, at.TotalCost)
		if err != nil {
			return nil, err
		}
		if cost, ok := prices.UnitCost(tpl.WorkServiceNames[0]); ok {
			mainPrice = cost
		}
	}

	sheet, err := costing.NewSheet(variant, costing.ScreenAgreement, input.Principal.Role, tpl.WorkServiceNames[0], mainPrice)
	if err != nil {
		return nil, err
	}
	if err := s.applyLines(sheet, input.Lines, prices); err != nil {
		return nil, err
	}

	contract := &model.Contract{
		ContractTypeID:     descriptor.ID,
		ContractTemplateID: tpl.ID,
		UnitCode:           scope.UnitCode,
		ContractorName:     contractorName,
		Status:             model.DocumentStatusIssued,
		Lines:              sheet.Lines(),
		TotalAmount:        sheet.Total(),
		CreatedBy:          input.Principal.UserID,
		CreatedAt:          date.UTC(),
	}
	number, err := s.numbers.Issue(ctx, scope, func(tx *gorm.DB, number numbering.Number) error {
		contract.Number = number.Formatted
		return s.documents.WithTx(tx).InsertContract(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("contract_id", contract.ID.String()).
		Str("number", number.Formatted).
		Str("total", contract.TotalAmount.StringFixed(2)).
		Msg("contract issued")
	return contract, nil
}

// CreateAct settles work under a contract. Every contract line is carried
// over read-only; quantities are taken from the request.
func (s *DocumentService) CreateAct(ctx context.Context, input CreateActInput) (*model.Act, error) {
	contract, err := s.documents.GetContract(ctx, input.ContractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	tpl, err := s.templates.GetContractTemplate(ctx, contract.ContractTemplateID)
	if err != nil {
		return nil, storeError(err, "contract template")
	}
	at, err := s.actTemplateFor(ctx, input.ActTemplateID, *tpl)
	if err != nil {
		return nil, err
	}
	code, err := s.registry.ForID(contract.ContractTypeID)
	if err != nil {
		return nil, err
	}
	variant, err := costing.VariantFor(code)
	if err != nil {
		return nil, err
	}
	prices, err := costing.LoadPriceList(variant, at.WorkServices, at.TotalCost)
	if err != nil {
		return nil, err
	}
	if len(contract.Lines) == 0 {
		return nil, apperr.Validation("contract %s has no lines", contract.Number)
	}

	var sheet *costing.Sheet
	for i, line := range contract.Lines {
		price := line.UnitPrice
		if cost, ok := prices.UnitCost(line.Name); ok {
			price = cost
		}
		if i == 0 {
			sheet, err = costing.NewSheet(variant, costing.ScreenAct, input.Principal.Role, line.Name, price)
		} else {
			err = sheet.Seed(line.Name, price)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.applyLines(sheet, input.Lines, prices); err != nil {
		return nil, err
	}

	scope, err := numbering.ActScope(contract.Number)
	if err != nil {
		return nil, err
	}
	act := &model.Act{
		ContractID:    contract.ID,
		ActTemplateID: at.ID,
		Status:        model.DocumentStatusIssued,
		Lines:         sheet.Lines(),
		TotalAmount:   sheet.Total(),
		CreatedBy:     input.Principal.UserID,
	}
	number, err := s.numbers.Issue(ctx, scope, func(tx *gorm.DB, number numbering.Number) error {
		act.Number = number.Formatted
		return s.documents.WithTx(tx).InsertAct(ctx, act)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("act_id", act.ID.String()).
		Str("contract", contract.Number).
		Str("number", number.Formatted).
		Str("total", act.TotalAmount.StringFixed(2)).
		Msg("act issued")
	return act, nil
}

// applyLines sets quantities on the seeded lines and appends the requested
// extra lines after them. Extra lines without a price take the act
// template's cost for that name.
func (s *DocumentService) applyLines(sheet *costing.Sheet, lines []LineRequest, prices *costing.PriceList) error {
	seeded := sheet.Len()
	for i, line := range lines {
		if i >= seeded {
			price, err := s.parser.Price(line.UnitPrice)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			if strings.TrimSpace(line.UnitPrice) == "" && prices != nil {
				if cost, ok := prices.UnitCost(strings.TrimSpace(line.Name)); ok {
					price = cost
				}
			}
			if err := sheet.AddLine(line.Name, price); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if strings.TrimSpace(line.Quantity) == "" || !sheet.Variant().QuantityEditable() {
			continue
		}
		quantity, err := s.parser.Quantity(line.Quantity)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if err := sheet.SetQuantity(i, quantity); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// actTemplateFor loads an act template and checks it prices tpl, either
// by link or, for legacy rows, by type and name.
func (s *DocumentService) actTemplateFor(ctx context.Context, id uuid.UUID, tpl model.ContractTemplate) (*model.ActTemplate, error) {
	at, err := s.templates.GetActTemplate(ctx, id)
	if err != nil {
		return nil, storeError(err, "act template")
	}
	linked := at.ContractTemplateID != nil && *at.ContractTemplateID == tpl.ID
	legacy := at.ContractTemplateID == nil && at.ContractTypeID == tpl.ContractTypeID && at.Name == tpl.Name
	if !linked && !legacy {
		return nil, apperr.Validation("act template %q does not belong to contract template %q", at.Name, tpl.Name)
	}
	return at, nil
}

func (s *DocumentService) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.documents.GetContract(ctx, id)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	return contract, nil
}

func (s *DocumentService) ListActs(ctx context.Context, contractID uuid.UUID) ([]model.Act, error) {
	if _, err := s.GetContract(ctx, contractID); err != nil {
		return nil, err
	}
	return s.documents.ListActsByContract(ctx, contractID)
}

// GetAct assembles the act with its contract and the total in words.
func (s *DocumentService) GetAct(ctx context.Context, id uuid.UUID) (*model.ActDocument, error) {
	act, err := s.documents.GetActByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "act")
	}
	contract, err := s.documents.GetContract(ctx, act.ContractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	descriptor, err := s.registry.DescribeID(contract.ContractTypeID)
	if err != nil {
		return nil, err
	}
	words, err := s.words.Format(act.TotalAmount)
	if err != nil {
		return nil, err
	}
	return &model.ActDocument{
		Act:      *act,
		Contract: *contract,
		ContractType: model.ContractType{
			ID:               descriptor.ID,
			Code:             string(descriptor.Code),
			Name:             descriptor.Name,
			Description:      descriptor.Description,
			UnitLabel:        descriptor.UnitLabel,
			DefaultUnitPrice: descriptor.DefaultUnitPrice,
		},
		UnitLabel:   descriptor.UnitLabel,
		AmountWords: words,
	}, nil
}

func (s *DocumentService) RenderActPDF(ctx context.Context, id uuid.UUID) (*FileResult, error) {
	return s.render(ctx, id, s.pdf, "pdf")
}

func (s *DocumentService) ExportActXLSX(ctx context.Context, id uuid.UUID) (*FileResult, error) {
	return s.render(ctx, id, s.excel, "xlsx")
}

func (s *DocumentService) render(ctx context.Context, id uuid.UUID, renderer ActRenderer, ext string) (*FileResult, error) {
	if renderer == nil {
		return nil, apperr.Configuration("%s renderer is not configured", ext)
	}
	doc, err := s.GetAct(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: buildFileName(*doc, ext),
		Content:  content,
	}, nil
}

func buildFileName(doc model.ActDocument, ext string) string {
	contract := sanitizeFileName(doc.Contract.Number)
	if contract == "" {
		contract = doc.Contract.ID.String()
	}
	act := sanitizeFileName(doc.Act.Number)
	if act == "" {
		act = doc.Act.ID.String()
	}
	return fmt.Sprintf("act-%s-%s.%s", contract, act, ext)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
