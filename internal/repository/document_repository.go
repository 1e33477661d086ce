package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// WithTx binds the repository to a transaction opened elsewhere, e.g. by
// the numbering authority.
func (r *DocumentRepository) WithTx(tx *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) InsertContract(ctx context.Context, c *model.Contract) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Exec(`
		INSERT INTO contracts (
			id,
			number,
			contract_type_id,
			contract_template_id,
			unit_code,
			contractor_name,
			status,
			total_amount,
			created_by,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.Number,
		c.ContractTypeID,
		c.ContractTemplateID,
		c.UnitCode,
		c.ContractorName,
		c.Status,
		c.TotalAmount,
		c.CreatedBy,
		c.CreatedAt,
	).Error; err != nil {
		return numberTaken(err)
	}

	for _, line := range c.Lines {
		if err := r.db.WithContext(ctx).Exec(`
			INSERT INTO contract_lines (contract_id, position, name, quantity, unit_price, amount, from_contract)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.ID, line.Position, line.Name, line.Quantity, line.UnitPrice, line.Amount, line.FromContract).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			number,
			contract_type_id,
			contract_template_id,
			unit_code,
			contractor_name,
			status,
			total_amount,
			created_by,
			created_at
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).Raw(`
		SELECT position, name, quantity, unit_price, amount, from_contract
		FROM contract_lines
		WHERE contract_id = ?
		ORDER BY position
	`, id).Scan(&c.Lines).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *DocumentRepository) InsertAct(ctx context.Context, act *model.Act) error {
	if act.ID == uuid.Nil {
		act.ID = uuid.New()
	}
	if act.CreatedAt.IsZero() {
		act.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO acts (
			id,
			number,
			contract_id,
			act_template_id,
			status,
			total_amount,
			created_by,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		act.ID,
		act.Number,
		act.ContractID,
		act.ActTemplateID,
		act.Status,
		act.TotalAmount,
		act.CreatedBy,
		act.CreatedAt,
	).Error
	if err != nil {
		return numberTaken(err)
	}

	for _, line := range act.Lines {
		if err := r.db.WithContext(ctx).Exec(`
			INSERT INTO act_lines (act_id, position, name, quantity, unit_price, amount, from_contract)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, act.ID, line.Position, line.Name, line.Quantity, line.UnitPrice, line.Amount, line.FromContract).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetActByID возвращает акт вместе со строками работ/услуг
func (r *DocumentRepository) GetActByID(ctx context.Context, id uuid.UUID) (*model.Act, error) {
	var act model.Act
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			number,
			contract_id,
			act_template_id,
			status,
			total_amount,
			created_by,
			created_at
		FROM acts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&act).Error
	if err != nil {
		return nil, err
	}
	if act.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).Raw(`
		SELECT position, name, quantity, unit_price, amount, from_contract
		FROM act_lines
		WHERE act_id = ?
		ORDER BY position
	`, id).Scan(&act.Lines).Error; err != nil {
		return nil, err
	}
	return &act, nil
}

// ListActsByContract возвращает акты договора без строк
func (r *DocumentRepository) ListActsByContract(ctx context.Context, contractID uuid.UUID) ([]model.Act, error) {
	var acts []model.Act
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			number,
			contract_id,
			act_template_id,
			status,
			total_amount,
			created_by,
			created_at
		FROM acts
		WHERE contract_id = ?
		ORDER BY LENGTH(number), number
	`, contractID).Scan(&acts).Error; err != nil {
		return nil, err
	}
	return acts, nil
}
