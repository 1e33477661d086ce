package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/podryad/internal/model"
)

const maxSheetName = 31

var lineHeaders = []string{
	"№",
	"Наименование работ (услуг)",
	"Ед. изм.",
	"Кол-во",
	"Цена, руб.",
	"Сумма, руб.",
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes the act on the first sheet and the contract it settles
// on the second.
func (g *Generator) Generate(doc model.ActDocument) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	actSheet := sanitizeSheetName("Акт " + doc.Act.Number)
	if err := file.SetSheetName("Sheet1", actSheet); err != nil {
		return nil, err
	}
	if err := g.writeAct(file, actSheet, doc); err != nil {
		return nil, err
	}

	contractSheet := sanitizeSheetName("Договор " + doc.Contract.Number)
	if contractSheet == actSheet {
		contractSheet = sanitizeSheetName(contractSheet + "-2")
	}
	if _, err := file.NewSheet(contractSheet); err != nil {
		return nil, err
	}
	if err := g.writeContract(file, contractSheet, doc); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeAct(file *excelize.File, sheet string, doc model.ActDocument) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Акт №")
	set("B1", doc.Act.Number)
	set("A2", "Дата")
	set("B2", formatDate(doc.Act.CreatedAt))
	set("A3", "Договор №")
	set("B3", doc.Contract.Number)
	set("A4", "Исполнитель")
	set("B4", doc.Contract.ContractorName)
	set("A5", "Вид договора")
	set("B5", doc.ContractType.Name)

	tableRow := 7
	last := writeLines(file, sheet, tableRow, doc.Act.Lines, doc.UnitLabel)

	set(fmt.Sprintf("E%d", last+1), "Итого")
	set(fmt.Sprintf("F%d", last+1), toNumber(doc.Act.TotalAmount))
	set(fmt.Sprintf("A%d", last+2), "Сумма прописью")
	set(fmt.Sprintf("B%d", last+2), doc.AmountWords)

	setWidths(file, sheet)
	return nil
}

func (g *Generator) writeContract(file *excelize.File, sheet string, doc model.ActDocument) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Договор №")
	set("B1", doc.Contract.Number)
	set("A2", "Дата")
	set("B2", formatDate(doc.Contract.CreatedAt))
	set("A3", "Структурное подразделение")
	set("B3", doc.Contract.UnitCode)

	tableRow := 5
	last := writeLines(file, sheet, tableRow, doc.Contract.Lines, doc.UnitLabel)
	set(fmt.Sprintf("E%d", last+1), "Итого")
	set(fmt.Sprintf("F%d", last+1), toNumber(doc.Contract.TotalAmount))

	setWidths(file, sheet)
	return nil
}

// writeLines returns the last row written.
func writeLines(file *excelize.File, sheet string, headerRow int, lines []model.DocumentLine, unitLabel string) int {
	for i, header := range lineHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = file.SetCellValue(sheet, cell, header)
	}
	row := headerRow
	for _, line := range lines {
		row++
		values := []interface{}{
			line.Position,
			line.Name,
			unitLabel,
			toNumber(line.Quantity),
			toNumber(line.UnitPrice),
			toNumber(line.Amount),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = file.SetCellValue(sheet, cell, value)
		}
	}
	return row
}

func setWidths(file *excelize.File, sheet string) {
	_ = file.SetColWidth(sheet, "A", "A", 26)
	_ = file.SetColWidth(sheet, "B", "B", 45)
	_ = file.SetColWidth(sheet, "C", "D", 10)
	_ = file.SetColWidth(sheet, "E", "F", 14)
}

func toNumber(value decimal.Decimal) float64 {
	return value.InexactFloat64()
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Лист"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Лист"
	}
	runes := []rune(value)
	if len(runes) > maxSheetName {
		value = string(runes[:maxSheetName])
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}
