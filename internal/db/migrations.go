package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Statements stay within the SQL shared by PostgreSQL and SQLite so the
// same schema backs the service and the tests.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS contract_types (
		id UUID PRIMARY KEY,
		code VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		unit_label VARCHAR(16) NOT NULL,
		default_unit_price NUMERIC(18,2) NOT NULL DEFAULT 0
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_types_code ON contract_types (code);`,
	`INSERT INTO contract_types (id, code, name, description, unit_label, default_unit_price) VALUES
		('6b1f3c0e-4a47-4c3e-9a51-0d6a1f0c0001', 'operation', 'Операционный', 'Оплата за количество выполненных операций', 'опер.', 0),
		('6b1f3c0e-4a47-4c3e-9a51-0d6a1f0c0002', 'norm-hour', 'Нормо-часовой', 'Оплата за отработанные часы', 'час', 0),
		('6b1f3c0e-4a47-4c3e-9a51-0d6a1f0c0003', 'cost', 'Стоимостной', 'Фиксированная стоимость услуги', 'усл.', 0)
	ON CONFLICT (code) DO NOTHING;`,
	`CREATE TABLE IF NOT EXISTS contract_templates (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		contract_type_id UUID NOT NULL REFERENCES contract_types(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_templates_type_name ON contract_templates (contract_type_id, name);`,
	`CREATE TABLE IF NOT EXISTS contract_template_services (
		contract_template_id UUID NOT NULL REFERENCES contract_templates(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name VARCHAR(255) NOT NULL,
		PRIMARY KEY (contract_template_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS act_templates (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		contract_type_id UUID NOT NULL REFERENCES contract_types(id),
		contract_template_id UUID REFERENCES contract_templates(id),
		department_id UUID,
		total_cost NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_act_templates_type_name ON act_templates (contract_type_id, name);`,
	`CREATE INDEX IF NOT EXISTS idx_act_templates_contract_template_id ON act_templates (contract_template_id) WHERE contract_template_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS act_template_services (
		act_template_id UUID NOT NULL REFERENCES act_templates(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit_cost NUMERIC(18,2) NOT NULL DEFAULT 0,
		PRIMARY KEY (act_template_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY,
		number VARCHAR(64) NOT NULL,
		contract_type_id UUID NOT NULL REFERENCES contract_types(id),
		contract_template_id UUID NOT NULL REFERENCES contract_templates(id),
		unit_code VARCHAR(32) NOT NULL,
		contractor_name VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		created_by UUID NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_number ON contracts (number);`,
	`CREATE TABLE IF NOT EXISTS contract_lines (
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name VARCHAR(255) NOT NULL,
		quantity NUMERIC(18,3) NOT NULL,
		unit_price NUMERIC(18,2) NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		from_contract BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (contract_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS acts (
		id UUID PRIMARY KEY,
		number VARCHAR(16) NOT NULL,
		contract_id UUID NOT NULL REFERENCES contracts(id),
		act_template_id UUID NOT NULL REFERENCES act_templates(id),
		status VARCHAR(16) NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		created_by UUID NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_acts_contract_number ON acts (contract_id, number);`,
	`CREATE INDEX IF NOT EXISTS idx_acts_act_template_id ON acts (act_template_id);`,
	`CREATE TABLE IF NOT EXISTS act_lines (
		act_id UUID NOT NULL REFERENCES acts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name VARCHAR(255) NOT NULL,
		quantity NUMERIC(18,3) NOT NULL,
		unit_price NUMERIC(18,2) NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		from_contract BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (act_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS sequence_counters (
		scope_key VARCHAR(128) PRIMARY KEY,
		last_issued_number INTEGER NOT NULL CHECK (last_issued_number >= 0),
		last_updated TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS issued_numbers (
		scope_key VARCHAR(128) NOT NULL,
		issued_number INTEGER NOT NULL,
		issued_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (scope_key, issued_number)
	);`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
