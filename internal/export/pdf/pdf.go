// Package pdf renders a statement with its totals into a PDF document.
package pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/export"
	"budgetbuddy/internal/log"
)

var (
	headerColor     = [3]int{33, 37, 41}
	headerTextColor = [3]int{255, 255, 255}
	bodyTextColor   = [3]int{33, 37, 41}
	incomeColor     = [3]int{0, 128, 0}
	expenseColor    = [3]int{192, 0, 0}
	lineColor       = [3]int{200, 200, 200}
)

// column widths in mm; they add up to the 190mm printable width of A4
var columnWidths = []float64{25, 22, 70, 38, 35}

var _ export.Exporter = (*Exporter)(nil)

// Exporter writes statements to a file path.
type Exporter struct {
	path   string
	logger *log.Logger
}

func NewExporter(path string, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Exporter{path: path, logger: logger.WithComponent(log.ComponentExport)}
}

// Export renders st into the exporter's file, creating parent directories.
func (e *Exporter) Export(ctx context.Context, st export.Statement) (string, error) {
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(e.path)
	if err != nil {
		return "", fmt.Errorf("create pdf file: %w", err)
	}
	if err := Render(f, st); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pdf file: %w", err)
	}
	e.logger.InfoContext(ctx, "Statement exported to PDF",
		log.FieldUserID, st.UserID,
		"path", e.path,
		"rows", len(st.Transactions))
	return e.path, nil
}

// Render writes the document to w.
func Render(w io.Writer, st export.Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Extrato BudgetBuddy"), false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Gerado em %s", st.GeneratedAt.Format("02/01/2006 15:04"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	title := "Extrato"
	if st.UserName != "" {
		title = fmt.Sprintf("Extrato de %s", st.UserName)
	}
	pdf.CellFormat(0, 12, tr("  "+title), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	summary(pdf, tr, st)
	table(pdf, tr, st)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func summary(pdf *gofpdf.Fpdf, tr func(string) string, st export.Statement) {
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Resumo")
	pdf.Ln(7)
	pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
	pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
	pdf.Ln(3)

	rows := []struct {
		label string
		value core.Money
	}{
		{"Receitas", st.TotalIncome},
		{"Despesas", st.TotalExpense},
		{"Saldo", st.Balance},
	}
	for _, r := range rows {
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.CellFormat(40, 7, tr(r.label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		if r.value.IsNegative() {
			pdf.SetTextColor(expenseColor[0], expenseColor[1], expenseColor[2])
		}
		pdf.CellFormat(50, 7, tr(r.value.BRL()), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, st export.Statement) {
	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for i, h := range export.Header {
			align := "L"
			if i == len(export.Header)-1 {
				align = "R"
			}
			pdf.CellFormat(columnWidths[i], 8, tr(h), "B", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	if len(st.Transactions) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, tr("Nenhuma movimentação."), "", 1, "L", false, 0, "")
		return
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, tx := range st.Transactions {
		if pdf.GetY()+7 > pageHeight-bottom-15 {
			pdf.AddPage()
			header()
		}
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.CellFormat(columnWidths[0], 7, tx.Date.Display(), "", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[1], 7, tr(export.KindLabel(tx.Kind)), "", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[2], 7, truncate(pdf, tr(tx.Label), columnWidths[2]-2), "", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[3], 7, tr(tx.Category), "", 0, "L", false, 0, "")

		amount := tx.Amount
		if tx.Kind == core.KindExpense {
			amount = amount.Neg()
			pdf.SetTextColor(expenseColor[0], expenseColor[1], expenseColor[2])
		} else {
			pdf.SetTextColor(incomeColor[0], incomeColor[1], incomeColor[2])
		}
		pdf.CellFormat(columnWidths[4], 7, tr(amount.BRL()), "", 1, "R", false, 0, "")
	}
}

// truncate shortens an already translated, single-byte encoded label to fit width.
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
