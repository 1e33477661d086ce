package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/contracttype"
	"github.com/nurpe/podryad/internal/costing"
	"github.com/nurpe/podryad/internal/model"
	"github.com/nurpe/podryad/internal/repository"
)

// companionSuffix names the act template created alongside a contract template.
const companionSuffix = " (авто)"

// TemplateService keeps contract templates and the act templates that price
// them consistent with each other.
type TemplateService struct {
	repo     *repository.TemplateRepository
	registry *contracttype.Registry
	log      zerolog.Logger
}

func NewTemplateService(repo *repository.TemplateRepository, registry *contracttype.Registry, log zerolog.Logger) *TemplateService {
	return &TemplateService{
		repo:     repo,
		registry: registry,
		log:      log,
	}
}

// ContractTypes lists the seeded contract variants.
func (s *TemplateService) ContractTypes() []contracttype.Descriptor {
	return s.registry.All()
}

type CreateContractTemplateInput struct {
	Name             string
	ContractType     string
	WorkServiceNames []string
	Principal        model.Principal
}

type CreateContractTemplateResult struct {
	Template  model.ContractTemplate
	Companion model.ActTemplate
}

// CreateContractTemplate stores the template and its zero-priced companion
// act template in one transaction.
func (s *TemplateService) CreateContractTemplate(ctx context.Context, input CreateContractTemplateInput) (*CreateContractTemplateResult, error) {
	if err := requireAuthor(input.Principal); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("template name is required")
	}
	descriptor, err := s.describe(input.ContractType)
	if err != nil {
		return nil, err
	}
	names, err := normalizeNames(input.WorkServiceNames)
	if err != nil {
		return nil, err
	}
	variant, err := costing.VariantFor(descriptor.Code)
	if err != nil {
		return nil, err
	}
	prices, err := costing.NewPriceList(variant, names)
	if err != nil {
		return nil, err
	}

	result := &CreateContractTemplateResult{
		Template: model.ContractTemplate{
			Name:             name,
			ContractTypeID:   descriptor.ID,
			WorkServiceNames: names,
		},
	}
	err = s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		taken, err := repo.ContractTemplateNameTaken(ctx, descriptor.ID, name)
		if err != nil {
			return err
		}
		if taken {
			return &apperr.ConflictError{Reason: fmt.Sprintf("contract template %q already exists", name)}
		}
		if err := repo.CreateContractTemplate(ctx, &result.Template); err != nil {
			return storeError(err, "contract template")
		}

		companionName := name + companionSuffix
		taken, err = repo.ActTemplateNameTaken(ctx, descriptor.ID, companionName)
		if err != nil {
			return err
		}
		if taken {
			return &apperr.ConflictError{Reason: fmt.Sprintf("act template %q already exists", companionName)}
		}
		templateID := result.Template.ID
		result.Companion = model.ActTemplate{
			Name:               companionName,
			ContractTypeID:     descriptor.ID,
			ContractTemplateID: &templateID,
			WorkServices:       prices.Services(),
			DepartmentID:       input.Principal.DepartmentID,
			TotalCost:          prices.Total(),
		}
		return storeError(repo.CreateActTemplate(ctx, &result.Companion), "act template")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("template_id", result.Template.ID.String()).
		Str("companion_id", result.Companion.ID.String()).
		Str("contract_type", string(descriptor.Code)).
		Msg("contract template created")
	return result, nil
}

// DeleteContractTemplate refuses while any act template still prices the
// template, reporting them so the caller can delete them first, and while
// issued contracts reference it.
func (s *TemplateService) DeleteContractTemplate(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if err := requireAuthor(principal); err != nil {
		return err
	}
	err := s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		tpl, err := repo.GetContractTemplate(ctx, id)
		if err != nil {
			return storeError(err, "contract template")
		}
		dependents, err := repo.DependentActTemplateIDs(ctx, *tpl)
		if err != nil {
			return err
		}
		if len(dependents) > 0 {
			redirect := tpl.ID
			return &apperr.ConflictError{
				Reason:             "has dependent act templates",
				DependentCount:     len(dependents),
				DependentIDs:       dependents,
				RedirectTemplateID: &redirect,
			}
		}
		contracts, err := repo.CountContractsByTemplate(ctx, tpl.ID)
		if err != nil {
			return err
		}
		if contracts > 0 {
			return &apperr.ConflictError{Reason: "contract template is used by issued contracts", DependentCount: int(contracts)}
		}
		return storeError(repo.DeleteContractTemplate(ctx, id), "contract template")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("template_id", id.String()).Msg("contract template deleted")
	return nil
}

func (s *TemplateService) CountDependents(ctx context.Context, id uuid.UUID) (int, error) {
	tpl, err := s.repo.GetContractTemplate(ctx, id)
	if err != nil {
		return 0, storeError(err, "contract template")
	}
	dependents, err := s.repo.DependentActTemplateIDs(ctx, *tpl)
	if err != nil {
		return 0, err
	}
	return len(dependents), nil
}

func (s *TemplateService) GetContractTemplate(ctx context.Context, id uuid.UUID) (*model.ContractTemplate, error) {
	tpl, err := s.repo.GetContractTemplate(ctx, id)
	if err != nil {
		return nil, storeError(err, "contract template")
	}
	return tpl, nil
}

// ListContractTemplates optionally filters by contract type code.
func (s *TemplateService) ListContractTemplates(ctx context.Context, contractType string) ([]model.ContractTemplateSummary, error) {
	var filter *uuid.UUID
	if strings.TrimSpace(contractType) != "" {
		descriptor, err := s.describe(contractType)
		if err != nil {
			return nil, err
		}
		filter = &descriptor.ID
	}
	return s.repo.ListContractTemplates(ctx, filter)
}

// AddWorkServiceName appends a name to the template and a zero-priced line
// to every act template that depends on it.
func (s *TemplateService) AddWorkServiceName(ctx context.Context, id uuid.UUID, name string, principal model.Principal) (*model.ContractTemplate, error) {
	if err := requireAuthor(principal); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("work/service name is required")
	}

	var updated *model.ContractTemplate
	err := s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		tpl, err := repo.GetContractTemplate(ctx, id)
		if err != nil {
			return storeError(err, "contract template")
		}
		if len(tpl.WorkServiceNames) >= costing.MaxLines {
			return apperr.Validation("maximum %d reached", costing.MaxLines)
		}
		for _, existing := range tpl.WorkServiceNames {
			if existing == name {
				return apperr.Validation("work/service %q is already listed", name)
			}
		}
		tpl.WorkServiceNames = append(tpl.WorkServiceNames, name)
		if err := repo.ReplaceServiceNames(ctx, tpl.ID, tpl.WorkServiceNames); err != nil {
			return err
		}

		err = s.rewriteDependents(ctx, repo, *tpl, func(services []model.PricedService) []model.PricedService {
			for _, svc := range services {
				if svc.Name == name {
					return services
				}
			}
			return append(services, model.PricedService{Name: name, UnitCost: decimal.Zero})
		})
		if err != nil {
			return err
		}
		updated = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveWorkServiceName drops the name at index (0-based) from the template
// and from its dependent act templates. The first name is permanent.
func (s *TemplateService) RemoveWorkServiceName(ctx context.Context, id uuid.UUID, index int, principal model.Principal) (*model.ContractTemplate, error) {
	if err := requireAuthor(principal); err != nil {
		return nil, err
	}

	var updated *model.ContractTemplate
	err := s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		tpl, err := repo.GetContractTemplate(ctx, id)
		if err != nil {
			return storeError(err, "contract template")
		}
		if index < 0 || index >= len(tpl.WorkServiceNames) {
			return apperr.Validation("work/service %d does not exist", index+1)
		}
		if len(tpl.WorkServiceNames) == 1 {
			return apperr.Validation("a template must keep at least one work/service")
		}
		if index == 0 {
			return apperr.Validation("the main work/service cannot be removed")
		}
		removed := tpl.WorkServiceNames[index]
		names := make([]string, 0, len(tpl.WorkServiceNames)-1)
		names = append(names, tpl.WorkServiceNames[:index]...)
		names = append(names, tpl.WorkServiceNames[index+1:]...)
		tpl.WorkServiceNames = names
		if err := repo.ReplaceServiceNames(ctx, tpl.ID, names); err != nil {
			return err
		}

		err = s.rewriteDependents(ctx, repo, *tpl, func(services []model.PricedService) []model.PricedService {
			kept := make([]model.PricedService, 0, len(services))
			for _, svc := range services {
				if svc.Name != removed {
					kept = append(kept, svc)
				}
			}
			if len(kept) == 0 {
				return services
			}
			return kept
		})
		if err != nil {
			return err
		}
		updated = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// rewriteDependents applies edit to the priced lines of every dependent act
// template. Cost templates get their total re-split over the new lines.
func (s *TemplateService) rewriteDependents(ctx context.Context, repo *repository.TemplateRepository, tpl model.ContractTemplate, edit func([]model.PricedService) []model.PricedService) error {
	dependents, err := repo.DependentActTemplateIDs(ctx, tpl)
	if err != nil {
		return err
	}
	for _, dependentID := range dependents {
		at, err := repo.GetActTemplate(ctx, dependentID)
		if err != nil {
			return storeError(err, "act template")
		}
		variant, err := s.variantForType(at.ContractTypeID)
		if err != nil {
			return err
		}
		services := edit(at.WorkServices)
		if len(services) > costing.MaxLines {
			return apperr.Validation("act template %q would exceed %d work/services", at.Name, costing.MaxLines)
		}
		prices, err := costing.LoadPriceList(variant, services, at.TotalCost)
		if err != nil {
			return err
		}
		if err := prices.SetTotal(at.TotalCost); err != nil {
			return err
		}
		if err := repo.ReplaceActTemplateServices(ctx, at.ID, prices.Services(), prices.Total()); err != nil {
			return err
		}
	}
	if len(dependents) > 0 {
		s.log.Debug().Str("template_id", tpl.ID.String()).Int("act_templates", len(dependents)).Msg("dependent act templates rewritten")
	}
	return nil
}

type CreateActTemplateInput struct {
	Name               string
	ContractTemplateID uuid.UUID
	// UnitCosts are positional; ignored for cost contracts.
	UnitCosts []decimal.Decimal
	TotalCost *decimal.Decimal
	Principal model.Principal
}

// CreateActTemplate prices the names of a contract template.
func (s *TemplateService) CreateActTemplate(ctx context.Context, input CreateActTemplateInput) (*model.ActTemplate, error) {
	if err := requireAuthor(input.Principal); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("template name is required")
	}

	var created *model.ActTemplate
	err := s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		parent, err := repo.GetContractTemplate(ctx, input.ContractTemplateID)
		if err != nil {
			return storeError(err, "contract template")
		}
		variant, err := s.variantForType(parent.ContractTypeID)
		if err != nil {
			return err
		}
		prices, err := costing.NewPriceList(variant, parent.WorkServiceNames)
		if err != nil {
			return err
		}
		if variant.Code() != contracttype.Cost && len(input.UnitCosts) > 0 {
			if err := prices.SetUnitCosts(input.UnitCosts); err != nil {
				return err
			}
		}
		if input.TotalCost != nil {
			if err := prices.SetTotal(*input.TotalCost); err != nil {
				return err
			}
		}

		taken, err := repo.ActTemplateNameTaken(ctx, parent.ContractTypeID, name)
		if err != nil {
			return err
		}
		if taken {
			return &apperr.ConflictError{Reason: fmt.Sprintf("act template %q already exists", name)}
		}
		parentID := parent.ID
		created = &model.ActTemplate{
			Name:               name,
			ContractTypeID:     parent.ContractTypeID,
			ContractTemplateID: &parentID,
			WorkServices:       prices.Services(),
			DepartmentID:       input.Principal.DepartmentID,
			TotalCost:          prices.Total(),
		}
		return storeError(repo.CreateActTemplate(ctx, created), "act template")
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TemplateService) GetActTemplate(ctx context.Context, id uuid.UUID) (*model.ActTemplate, error) {
	at, err := s.repo.GetActTemplate(ctx, id)
	if err != nil {
		return nil, storeError(err, "act template")
	}
	return at, nil
}

// UpdateActTemplateCosts sets per-line costs of an operation or norm-hour template.
func (s *TemplateService) UpdateActTemplateCosts(ctx context.Context, id uuid.UUID, costs []decimal.Decimal, principal model.Principal) (*model.ActTemplate, error) {
	return s.reprice(ctx, id, principal, func(prices *costing.PriceList) error {
		return prices.SetUnitCosts(costs)
	})
}

// SetActTemplateTotal stores the total; for cost templates it also re-splits unit costs.
func (s *TemplateService) SetActTemplateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal, principal model.Principal) (*model.ActTemplate, error) {
	return s.reprice(ctx, id, principal, func(prices *costing.PriceList) error {
		return prices.SetTotal(total)
	})
}

func (s *TemplateService) reprice(ctx context.Context, id uuid.UUID, principal model.Principal, apply func(*costing.PriceList) error) (*model.ActTemplate, error) {
	if err := requireAuthor(principal); err != nil {
		return nil, err
	}
	var updated *model.ActTemplate
	err := s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		at, err := repo.GetActTemplate(ctx, id)
		if err != nil {
			return storeError(err, "act template")
		}
		variant, err := s.variantForType(at.ContractTypeID)
		if err != nil {
			return err
		}
		prices, err := costing.LoadPriceList(variant, at.WorkServices, at.TotalCost)
		if err != nil {
			return err
		}
		if err := apply(prices); err != nil {
			return err
		}
		if err := repo.UpdateActTemplateCosts(ctx, at.ID, prices.Services(), prices.Total()); err != nil {
			return storeError(err, "act template")
		}
		at.WorkServices = prices.Services()
		at.TotalCost = prices.Total()
		updated = at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteActTemplate refuses while issued acts reference the template.
func (s *TemplateService) DeleteActTemplate(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if err := requireAuthor(principal); err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(repo *repository.TemplateRepository) error {
		acts, err := repo.CountActsByActTemplate(ctx, id)
		if err != nil {
			return err
		}
		if acts > 0 {
			return &apperr.ConflictError{Reason: "act template is used by issued acts", DependentCount: int(acts)}
		}
		return storeError(repo.DeleteActTemplate(ctx, id), "act template")
	})
}

// describe resolves a user supplied contract type code. Unknown codes are
// bad input here, not a configuration fault.
func (s *TemplateService) describe(raw string) (contracttype.Descriptor, error) {
	code, err := contracttype.ParseCode(strings.TrimSpace(raw))
	if err != nil {
		return contracttype.Descriptor{}, apperr.Validation("unknown contract type %q", raw)
	}
	return s.registry.Describe(code)
}

func (s *TemplateService) variantForType(contractTypeID uuid.UUID) (costing.Variant, error) {
	code, err := s.registry.ForID(contractTypeID)
	if err != nil {
		return nil, err
	}
	return costing.VariantFor(code)
}

func normalizeNames(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, apperr.Validation("at least one work/service is required")
	}
	if len(raw) > costing.MaxLines {
		return nil, apperr.Validation("maximum %d reached", costing.MaxLines)
	}
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperr.Validation("work/service %d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, apperr.Validation("work/service %q is listed twice", name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}
