package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/model"
)

const fontName = "DejaVuSans"

// Generator prints acts of completed work. Cyrillic text needs a UTF-8
// TrueType font, read once at construction.
type Generator struct {
	regular []byte
	bold    []byte
}

// NewGenerator loads the fonts. boldPath may be empty, then the regular
// face is used for headings too.
func NewGenerator(regularPath, boldPath string) (*Generator, error) {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf font: %w", err)
	}
	if len(regular) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	bold := regular
	if strings.TrimSpace(boldPath) != "" {
		data, err := os.ReadFile(boldPath)
		if err != nil {
			return nil, fmt.Errorf("read pdf bold font: %w", err)
		}
		if len(data) > 0 {
			bold = data
		}
	}
	return &Generator{regular: regular, bold: bold}, nil
}

func (g *Generator) Generate(doc model.ActDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddUTF8FontFromBytes(fontName, "", g.regular)
	pdf.AddUTF8FontFromBytes(fontName, "B", g.bold)
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("АКТ № %s", doc.Act.Number), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, "выполненных работ (оказанных услуг)", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("к договору подряда № %s от %s", doc.Contract.Number, formatDate(doc.Contract.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.CellFormat(0, 6, fmt.Sprintf("Дата составления: %s", formatDate(doc.Act.CreatedAt)), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	infoLine(pdf, "Исполнитель", doc.Contract.ContractorName)
	infoLine(pdf, "Структурное подразделение", doc.Contract.UnitCode)
	infoLine(pdf, "Вид договора", doc.ContractType.Name)
	pdf.Ln(4)

	headers := []string{"№", "Наименование работ (услуг)", "Ед. изм.", "Кол-во", "Цена, руб.", "Сумма, руб."}
	colWidths := []float64{10, 80, 20, 20, 25, 25}
	drawTableRow(pdf, headers, colWidths, true)

	for _, line := range doc.Act.Lines {
		drawTableRow(pdf, []string{
			fmt.Sprintf("%d", line.Position),
			line.Name,
			safeValue(doc.UnitLabel),
			formatQuantity(line.Quantity),
			formatAmount(line.UnitPrice),
			formatAmount(line.Amount),
		}, colWidths, false)
	}

	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Итого: %s руб.", formatAmount(doc.Act.TotalAmount)), "", 1, "R", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("Всего к оплате: %s", safeValue(doc.AmountWords)), "", "L", false)
	pdf.Ln(6)

	pdf.MultiCell(0, 6, "Работы (услуги) выполнены полностью и в срок. Стороны претензий по объему, качеству и срокам не имеют.", "", "L", false)
	pdf.Ln(8)

	signatureBlock(pdf, "Заказчик", "")
	pdf.Ln(2)
	signatureBlock(pdf, "Исполнитель", doc.Contract.ContractorName)

	if pdf.Err() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func infoLine(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(60, 6, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 6, safeValue(value), "", "L", false)
}

func drawTableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i == 0 || i == 2 {
			align = "C"
		}
		if i > 2 && !header {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatQuantity(value decimal.Decimal) string {
	return value.Round(3).String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02.01.2006")
}
