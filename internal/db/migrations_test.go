package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return database
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, Migrate(database))
	require.NoError(t, Migrate(database))

	var count int64
	require.NoError(t, database.Raw(`SELECT COUNT(*) FROM contract_types`).Scan(&count).Error)
	assert.Equal(t, int64(3), count)

	var codes []string
	require.NoError(t, database.Raw(`SELECT code FROM contract_types ORDER BY code`).Scan(&codes).Error)
	assert.Equal(t, []string{"cost", "norm-hour", "operation"}, codes)
}

func TestIssuedNumbersAreUnique(t *testing.T) {
	database := setupTestDB(t)
	require.NoError(t, Migrate(database))

	insert := `INSERT INTO issued_numbers (scope_key, issued_number) VALUES (?, ?)`
	require.NoError(t, database.Exec(insert, "act:01/25/1", 1).Error)
	assert.Error(t, database.Exec(insert, "act:01/25/1", 1).Error)
	assert.NoError(t, database.Exec(insert, "act:02/25/1", 1).Error)
}
