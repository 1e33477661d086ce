package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/model"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Transaction runs fn with a repository bound to one transaction.
func (r *TemplateRepository) Transaction(ctx context.Context, fn func(repo *TemplateRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TemplateRepository{db: tx})
	})
}

func (r *TemplateRepository) ListContractTypes(ctx context.Context) ([]model.ContractType, error) {
	var types []model.ContractType
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name, description, unit_label, default_unit_price
		FROM contract_types
		ORDER BY code
	`).Scan(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *TemplateRepository) CreateContractTemplate(ctx context.Context, tpl *model.ContractTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Exec(`
		INSERT INTO contract_templates (id, name, contract_type_id, created_at)
		VALUES (?, ?, ?, ?)
	`, tpl.ID, tpl.Name, tpl.ContractTypeID, tpl.CreatedAt).Error; err != nil {
		return err
	}
	return r.insertServiceNames(ctx, tpl.ID, tpl.WorkServiceNames)
}

func (r *TemplateRepository) insertServiceNames(ctx context.Context, templateID uuid.UUID, names []string) error {
	for i, name := range names {
		if err := r.db.WithContext(ctx).Exec(`
			INSERT INTO contract_template_services (contract_template_id, position, name)
			VALUES (?, ?, ?)
		`, templateID, i+1, name).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceServiceNames rewrites the ordered name list of a contract template.
func (r *TemplateRepository) ReplaceServiceNames(ctx context.Context, templateID uuid.UUID, names []string) error {
	if err := r.db.WithContext(ctx).Exec(`
		DELETE FROM contract_template_services WHERE contract_template_id = ?
	`, templateID).Error; err != nil {
		return err
	}
	return r.insertServiceNames(ctx, templateID, names)
}

func (r *TemplateRepository) GetContractTemplate(ctx context.Context, id uuid.UUID) (*model.ContractTemplate, error) {
	var tpl model.ContractTemplate
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, contract_type_id, created_at
		FROM contract_templates
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&tpl).Error; err != nil {
		return nil, err
	}
	if tpl.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	names, err := r.serviceNames(ctx, []uuid.UUID{tpl.ID})
	if err != nil {
		return nil, err
	}
	tpl.WorkServiceNames = names[tpl.ID]
	return &tpl, nil
}

func (r *TemplateRepository) serviceNames(ctx context.Context, templateIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string, len(templateIDs))
	if len(templateIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		ContractTemplateID uuid.UUID
		Position           int
		Name               string
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT contract_template_id, position, name
		FROM contract_template_services
		WHERE contract_template_id IN ?
		ORDER BY contract_template_id, position
	`, templateIDs).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ContractTemplateID] = append(result[row.ContractTemplateID], row.Name)
	}
	return result, nil
}

// ListContractTemplates returns every template with its dependent act template count.
func (r *TemplateRepository) ListContractTemplates(ctx context.Context, contractTypeID *uuid.UUID) ([]model.ContractTemplateSummary, error) {
	query := `
		SELECT
			ct.id,
			ct.name,
			ct.contract_type_id,
			ct.created_at,
			(
				SELECT COUNT(*) FROM act_templates atp
				WHERE atp.contract_template_id = ct.id
					OR (atp.contract_template_id IS NULL AND atp.contract_type_id = ct.contract_type_id AND atp.name = ct.name)
			) AS dependent_count
		FROM contract_templates ct
	`
	args := []interface{}{}
	if contractTypeID != nil {
		query += " WHERE ct.contract_type_id = ?"
		args = append(args, *contractTypeID)
	}
	query += " ORDER BY ct.name ASC"

	var rows []struct {
		ID             uuid.UUID
		Name           string
		ContractTypeID uuid.UUID
		CreatedAt      time.Time
		DependentCount int
	}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	names, err := r.serviceNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]model.ContractTemplateSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.ContractTemplateSummary{
			ContractTemplate: model.ContractTemplate{
				ID:               row.ID,
				Name:             row.Name,
				ContractTypeID:   row.ContractTypeID,
				WorkServiceNames: names[row.ID],
				CreatedAt:        row.CreatedAt,
			},
			DependentCount: row.DependentCount,
			NoPricedWork:   row.DependentCount == 0,
		})
	}
	return result, nil
}

func (r *TemplateRepository) ContractTemplateNameTaken(ctx context.Context, contractTypeID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM contract_templates WHERE contract_type_id = ? AND name = ?
	`, contractTypeID, name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DependentActTemplateIDs lists act templates linked to tpl by id or, for
// legacy rows without a link, by contract type and name.
func (r *TemplateRepository) DependentActTemplateIDs(ctx context.Context, tpl model.ContractTemplate) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id
		FROM act_templates
		WHERE contract_template_id = ?
			OR (contract_template_id IS NULL AND contract_type_id = ? AND name = ?)
		ORDER BY created_at, id
	`, tpl.ID, tpl.ContractTypeID, tpl.Name).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *TemplateRepository) DeleteContractTemplate(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Exec(`
		DELETE FROM contract_template_services WHERE contract_template_id = ?
	`, id).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`DELETE FROM contract_templates WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TemplateRepository) CreateActTemplate(ctx context.Context, tpl *model.ActTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Exec(`
		INSERT INTO act_templates (id, name, contract_type_id, contract_template_id, department_id, total_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tpl.ID, tpl.Name, tpl.ContractTypeID, tpl.ContractTemplateID, tpl.DepartmentID, tpl.TotalCost, tpl.CreatedAt).Error; err != nil {
		return err
	}
	return r.insertPricedServices(ctx, tpl.ID, tpl.WorkServices)
}

func (r *TemplateRepository) insertPricedServices(ctx context.Context, actTemplateID uuid.UUID, services []model.PricedService) error {
	for i, s := range services {
		if err := r.db.WithContext(ctx).Exec(`
			INSERT INTO act_template_services (act_template_id, position, name, unit_cost)
			VALUES (?, ?, ?, ?)
		`, actTemplateID, i+1, s.Name, s.UnitCost).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *TemplateRepository) GetActTemplate(ctx context.Context, id uuid.UUID) (*model.ActTemplate, error) {
	var tpl model.ActTemplate
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, contract_type_id, contract_template_id, department_id, total_cost, created_at
		FROM act_templates
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&tpl).Error; err != nil {
		return nil, err
	}
	if tpl.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).Raw(`
		SELECT position, name, unit_cost
		FROM act_template_services
		WHERE act_template_id = ?
		ORDER BY position
	`, id).Scan(&tpl.WorkServices).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepository) ActTemplateNameTaken(ctx context.Context, contractTypeID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM act_templates WHERE contract_type_id = ? AND name = ?
	`, contractTypeID, name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TemplateRepository) UpdateActTemplateCosts(ctx context.Context, id uuid.UUID, services []model.PricedService, total decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`UPDATE act_templates SET total_cost = ? WHERE id = ?`, total, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	for _, s := range services {
		if err := r.db.WithContext(ctx).Exec(`
			UPDATE act_template_services SET unit_cost = ? WHERE act_template_id = ? AND position = ?
		`, s.UnitCost, id, s.Position).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceActTemplateServices rewrites the priced lines of an act template.
func (r *TemplateRepository) ReplaceActTemplateServices(ctx context.Context, id uuid.UUID, services []model.PricedService, total decimal.Decimal) error {
	if err := r.db.WithContext(ctx).Exec(`
		DELETE FROM act_template_services WHERE act_template_id = ?
	`, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Exec(`UPDATE act_templates SET total_cost = ? WHERE id = ?`, total, id).Error; err != nil {
		return err
	}
	return r.insertPricedServices(ctx, id, services)
}

// CountContractsByTemplate counts issued contracts built from a contract template.
func (r *TemplateRepository) CountContractsByTemplate(ctx context.Context, contractTemplateID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM contracts WHERE contract_template_id = ?
	`, contractTemplateID).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TemplateRepository) CountActsByActTemplate(ctx context.Context, actTemplateID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM acts WHERE act_template_id = ?
	`, actTemplateID).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TemplateRepository) DeleteActTemplate(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Exec(`
		DELETE FROM act_template_services WHERE act_template_id = ?
	`, id).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`DELETE FROM act_templates WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
