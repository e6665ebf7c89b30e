package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sistem-rt/portal-api/internal/models"
)

// InvoiceRenderer produces the dues payment invoice document.
type InvoiceRenderer struct{}

// NewInvoiceRenderer constructs a renderer.
func NewInvoiceRenderer() *InvoiceRenderer {
	return &InvoiceRenderer{}
}

// Render builds the invoice PDF for a recorded payment.
func (r *InvoiceRenderer) Render(payment *models.Payment) ([]byte, error) {
	if payment == nil {
		return nil, fmt.Errorf("payment is required")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Arial", "B", 20)
	doc.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 8, "PEMBAYARAN IURAN KAS RT", "", 1, "C", false, 0, "")
	doc.Ln(10)

	doc.SetFont("Arial", "", 12)
	doc.CellFormat(0, 6, fmt.Sprintf("No. Invoice: INV-%s", payment.ID), "", 1, "R", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Tanggal: %s", time.Now().Format("02-01-2006")), "", 1, "R", false, 0, "")
	doc.Ln(10)

	doc.CellFormat(0, 6, fmt.Sprintf("Periode Iuran: %s", payment.Period), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Metode Pembayaran: %s", methodLabel(payment.PaymentMethod)), "", 1, "L", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Arial", "B", 14)
	doc.CellFormat(0, 8, fmt.Sprintf("Total Pembayaran: Rp %s", formatRupiah(payment.Amount)), "", 1, "R", false, 0, "")
	doc.Ln(16)

	doc.SetFont("Arial", "", 10)
	doc.CellFormat(0, 5, "Terima kasih atas pembayaran Anda.", "", 1, "C", false, 0, "")
	doc.CellFormat(0, 5, "Invoice ini adalah bukti pembayaran yang sah.", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func methodLabel(method models.PaymentMethod) string {
	if method == models.PaymentMethodCash {
		return "Tunai"
	}
	return "Transfer"
}

// formatRupiah renders an amount with Indonesian thousand separators.
func formatRupiah(amount int64) string {
	raw := fmt.Sprintf("%d", amount)
	if len(raw) <= 3 {
		return raw
	}
	var out []byte
	for i, digit := range []byte(raw) {
		if i > 0 && (len(raw)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digit)
	}
	return string(out)
}
