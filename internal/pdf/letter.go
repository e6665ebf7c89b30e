// Package pdf renders letter and invoice documents. Layout is deterministic:
// rendering the same record twice produces the same document, so regenerating
// an artifact only overwrites it.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sistem-rt/portal-api/internal/letters"
	"github.com/sistem-rt/portal-api/internal/models"
)

var letterTitles = map[models.LetterType]string{
	models.LetterTypeDeath:    "SURAT LAPORAN KEMATIAN",
	models.LetterTypeBirth:    "SURAT LAPORAN KELAHIRAN",
	models.LetterTypeMutation: "SURAT LAPORAN MUTASI",
	models.LetterTypeOther:    "SURAT KETERANGAN",
}

// LetterRenderer produces the official community letter for an approved
// application.
type LetterRenderer struct{}

// NewLetterRenderer constructs a renderer.
func NewLetterRenderer() *LetterRenderer {
	return &LetterRenderer{}
}

// Render builds the letter PDF from the application record and the owning
// resident's profile.
func (r *LetterRenderer) Render(app *models.LetterApplication, user *models.User, details map[string]string) ([]byte, error) {
	if app == nil || user == nil {
		return nil, fmt.Errorf("application and user are required")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, "SURAT KETERANGAN", "", 1, "C", false, 0, "")

	title := letterTitles[app.LetterType]
	if title == "" {
		title = "SURAT KETERANGAN"
	}
	doc.SetFont("Arial", "B", 14)
	doc.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	doc.Ln(8)

	doc.SetFont("Arial", "", 12)
	doc.MultiCell(0, 6, "Yang bertanda tangan di bawah ini, Ketua RT, menerangkan bahwa:", "", "J", false)
	doc.Ln(4)

	identityLine(doc, "Nama", user.FullName)
	identityLine(doc, "NIK", user.NIK)
	identityLine(doc, "Tempat/Tgl Lahir", fmt.Sprintf("%s, %s", orDash(user.PlaceOfBirth), orDash(deref(user.DateOfBirth))))
	identityLine(doc, "Jenis Kelamin", user.Gender)
	identityLine(doc, "Alamat", user.Address)
	if user.RT != nil {
		identityLine(doc, "RT/RW", fmt.Sprintf("%s/%s", *user.RT, orDash(deref(user.RW))))
	}
	if user.Kelurahan != nil {
		identityLine(doc, "Kelurahan", *user.Kelurahan)
	}
	if user.Kecamatan != nil {
		identityLine(doc, "Kecamatan", *user.Kecamatan)
	}
	if user.City != nil {
		identityLine(doc, "Kota/Kabupaten", *user.City)
	}
	if user.Province != nil {
		identityLine(doc, "Provinsi", *user.Province)
	}

	if fields, ok := letters.Schema(app.LetterType); ok && len(details) > 0 {
		doc.Ln(4)
		doc.SetFont("Arial", "B", 12)
		doc.CellFormat(0, 6, "Rincian Pengajuan", "", 1, "L", false, 0, "")
		doc.SetFont("Arial", "", 12)
		for _, field := range fields {
			if value := details[field.Name]; value != "" {
				identityLine(doc, field.Label, value)
			}
		}
	}

	doc.Ln(4)
	purpose := "-"
	if app.Purpose != nil && *app.Purpose != "" {
		purpose = *app.Purpose
	}
	doc.MultiCell(0, 6, fmt.Sprintf("Tujuan Pengajuan: %s", purpose), "", "J", false)
	doc.Ln(8)

	doc.MultiCell(0, 6, "Demikian surat keterangan ini dibuat dengan sebenar-benarnya untuk dapat dipergunakan sebagaimana mestinya.", "", "J", false)
	doc.Ln(16)

	doc.CellFormat(0, 6, "Ketua RT", "", 1, "R", false, 0, "")
	doc.Ln(16)
	doc.CellFormat(0, 6, "___________________", "", 1, "R", false, 0, "")
	doc.SetFont("Arial", "", 10)
	doc.CellFormat(0, 5, "Tanda Tangan Elektronik", "", 1, "R", false, 0, "")
	doc.Ln(8)

	doc.CellFormat(0, 5, fmt.Sprintf("ID Pengajuan: %s", app.ApplicationID), "", 1, "C", false, 0, "")
	doc.CellFormat(0, 5, fmt.Sprintf("Tanggal: %s", time.Now().Format("02-01-2006")), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func identityLine(doc *gofpdf.Fpdf, label, value string) {
	doc.CellFormat(55, 6, label, "", 0, "L", false, 0, "")
	doc.CellFormat(5, 6, ":", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, orDash(value), "", 1, "L", false, 0, "")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
