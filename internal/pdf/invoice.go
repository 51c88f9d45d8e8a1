// Package pdf renders settlement invoices as simple one-table PDF files.
package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Document is everything printed on an invoice.
type Document struct {
	Number            string
	RestaurantName    string
	RestaurantAddress string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	Status            string
	Subtotal          decimal.Decimal
	CommissionRate    decimal.Decimal
	CommissionTotal   decimal.Decimal
	OrdersCount       int32
	IssuedAt          time.Time
	Lines             []Line
}

type Line struct {
	OrderID     string
	Meal        string
	Quantity    int32
	CompletedAt time.Time
	Total       decimal.Decimal
	Commission  decimal.Decimal
}

// Render writes doc as PDF to out.
func Render(doc Document, out io.Writer) error {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle("Invoice "+doc.Number, true)
	p.AddPage()

	p.SetFont("Helvetica", "B", 16)
	p.Cell(0, 10, "SavedFeast commission invoice")
	p.Ln(12)

	p.SetFont("Helvetica", "", 10)
	header := [][2]string{
		{"Invoice", doc.Number},
		{"Restaurant", doc.RestaurantName},
		{"Address", doc.RestaurantAddress},
		{"Period", doc.PeriodStart.Format("2006-01-02") + " to " + doc.PeriodEnd.Format("2006-01-02")},
		{"Status", strings.ToUpper(doc.Status)},
		{"Issued", doc.IssuedAt.Format("2006-01-02")},
	}
	for _, row := range header {
		p.CellFormat(35, 6, row[0], "", 0, "L", false, 0, "")
		p.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	p.Ln(4)

	widths := []float64{50, 55, 15, 35, 35}
	p.SetFont("Helvetica", "B", 9)
	p.SetFillColor(230, 230, 230)
	for i, title := range []string{"Completed", "Meal", "Qty", "Order total", "Commission"} {
		p.CellFormat(widths[i], 7, title, "1", 0, "C", true, 0, "")
	}
	p.Ln(-1)

	p.SetFont("Helvetica", "", 9)
	for _, l := range doc.Lines {
		p.CellFormat(widths[0], 6, l.CompletedAt.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		p.CellFormat(widths[1], 6, truncate(l.Meal, 32), "1", 0, "L", false, 0, "")
		p.CellFormat(widths[2], 6, fmt.Sprintf("%d", l.Quantity), "1", 0, "R", false, 0, "")
		p.CellFormat(widths[3], 6, l.Total.StringFixed(2), "1", 0, "R", false, 0, "")
		p.CellFormat(widths[4], 6, l.Commission.StringFixed(2), "1", 0, "R", false, 0, "")
		p.Ln(-1)
	}
	p.Ln(4)

	p.SetFont("Helvetica", "B", 10)
	totals := [][2]string{
		{"Orders", fmt.Sprintf("%d", doc.OrdersCount)},
		{"Subtotal sales", doc.Subtotal.StringFixed(2)},
		{"Commission rate", doc.CommissionRate.Mul(decimal.NewFromInt(100)).StringFixed(2) + " %"},
		{"Commission due", doc.CommissionTotal.StringFixed(2)},
	}
	for _, row := range totals {
		p.CellFormat(155, 6, row[0], "", 0, "R", false, 0, "")
		p.CellFormat(35, 6, row[1], "", 1, "R", false, 0, "")
	}

	return p.Output(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}

// Writer stores rendered invoices under dir/invoices.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write renders doc and returns the path of the written file.
func (w *Writer) Write(doc Document) (string, error) {
	dir := filepath.Join(w.dir, "invoices")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}

	path := filepath.Join(dir, doc.Number+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create invoice file: %w", err)
	}
	if err := Render(doc, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render invoice: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close invoice file: %w", err)
	}
	return path, nil
}
