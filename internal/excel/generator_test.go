package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/podryad/internal/model"
)

func TestGenerate(t *testing.T) {
	line := model.DocumentLine{
		Position:     1,
		Name:         "Выкладка товара",
		Quantity:     decimal.NewFromInt(120),
		UnitPrice:    decimal.RequireFromString("4.50"),
		Amount:       decimal.RequireFromString("540.00"),
		FromContract: true,
	}
	doc := model.ActDocument{
		Act: model.Act{
			Number:      "001",
			Lines:       []model.DocumentLine{line},
			TotalAmount: decimal.RequireFromString("540.00"),
			CreatedAt:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
		Contract: model.Contract{
			Number:         "01/25/11118",
			UnitCode:       "11118",
			ContractorName: "Иванов И.И.",
			Lines:          []model.DocumentLine{line},
			TotalAmount:    decimal.RequireFromString("540.00"),
		},
		ContractType: model.ContractType{Name: "Операционный"},
		UnitLabel:    "опер.",
		AmountWords:  "пятьсот сорок рублей ноль копеек",
	}

	content, err := NewGenerator().Generate(doc)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Акт 001", "Договор 01-25-11118"}, file.GetSheetList())

	get := func(sheet, cell string) string {
		value, err := file.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return value
	}
	assert.Equal(t, "01/25/11118", get("Акт 001", "B3"))
	assert.Equal(t, "31.03.2025", get("Акт 001", "B2"))
	assert.Equal(t, "Выкладка товара", get("Акт 001", "B8"))
	assert.Equal(t, "опер.", get("Акт 001", "C8"))
	assert.Equal(t, "120", get("Акт 001", "D8"))
	assert.Equal(t, "540", get("Акт 001", "F9"))
	assert.Equal(t, "пятьсот сорок рублей ноль копеек", get("Акт 001", "B10"))
	assert.Equal(t, "11118", get("Договор 01-25-11118", "B3"))
	assert.Equal(t, "4.5", get("Договор 01-25-11118", "E6"))
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "Лист", sanitizeSheetName("  "))
	assert.Equal(t, "a-b-c", sanitizeSheetName("a/b:c"))
	long := sanitizeSheetName("Договор 0123456789012345678901234567890")
	assert.Len(t, []rune(long), maxSheetName)
}
