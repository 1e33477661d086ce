package contracttype

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/model"
)

func seed() []model.ContractType {
	return []model.ContractType{
		{ID: uuid.New(), Code: "operation", Name: "Операционный"},
		{ID: uuid.New(), Code: "norm-hour", Name: "Нормо-час", DefaultUnitPrice: decimal.RequireFromString("12.50")},
		{ID: uuid.New(), Code: "cost", Name: "Стоимостной", UnitLabel: "усл."},
	}
}

func TestDescribe(t *testing.T) {
	registry, err := NewRegistry(seed())
	require.NoError(t, err)

	tests := []struct {
		code  Code
		label string
	}{
		{Operation, "опер."},
		{NormHour, "час"},
		{Cost, "усл."},
	}
	for _, tt := range tests {
		d, err := registry.Describe(tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.label, d.UnitLabel)
		assert.Equal(t, tt.code, d.Code)
	}

	d, err := registry.Describe(NormHour)
	require.NoError(t, err)
	assert.True(t, d.DefaultUnitPrice.Equal(decimal.RequireFromString("12.5")))
}

func TestForID(t *testing.T) {
	types := seed()
	registry, err := NewRegistry(types)
	require.NoError(t, err)

	code, err := registry.ForID(types[2].ID)
	require.NoError(t, err)
	assert.Equal(t, Cost, code)

	_, err = registry.ForID(uuid.New())
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestUnknownCodeIsConfigurationError(t *testing.T) {
	_, err := ParseCode("piecework")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	registry, err := NewRegistry(seed())
	require.NoError(t, err)
	_, err = registry.Describe(Code("piecework"))
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestNewRegistryRequiresAllVariants(t *testing.T) {
	_, err := NewRegistry(seed()[:2])
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	bad := append(seed(), model.ContractType{ID: uuid.New(), Code: "barter"})
	_, err = NewRegistry(bad)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestAllKeepsOrder(t *testing.T) {
	registry, err := NewRegistry(seed())
	require.NoError(t, err)
	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, []Code{Operation, NormHour, Cost}, []Code{all[0].Code, all[1].Code, all[2].Code})
}
