// Package letters declares the per-type detail schema for letter
// applications and validates submitted details against it. Validation is a
// pure predicate: it has no side effects and no storage dependency.
package letters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

// FieldKind is the primitive input kind of a detail field.
type FieldKind string

const (
	FieldText      FieldKind = "text"
	FieldDate      FieldKind = "date"
	FieldSelect    FieldKind = "single-line-select"
	FieldMultiline FieldKind = "multi-line-text"
)

// Field describes one declared detail field for a letter type.
type Field struct {
	Name       string
	Label      string
	Kind       FieldKind
	Required   bool
	NationalID bool
	Options    []string
}

// schemas maps each letter type to its ordered field list. New letter types
// are added here, not in code paths.
var schemas = map[models.LetterType][]Field{
	models.LetterTypeDeath: {
		{Name: "deceasedName", Label: "Nama Almarhum/Almarhumah", Kind: FieldText, Required: true},
		{Name: "deceasedNik", Label: "NIK Almarhum/Almarhumah", Kind: FieldText, Required: true, NationalID: true},
		{Name: "deathDate", Label: "Tanggal Meninggal", Kind: FieldDate, Required: true},
		{Name: "deathLocation", Label: "Tempat Meninggal", Kind: FieldText, Required: true},
		{Name: "notes", Label: "Keterangan", Kind: FieldMultiline, Required: false},
	},
	models.LetterTypeBirth: {
		{Name: "babyName", Label: "Nama Bayi", Kind: FieldText, Required: true},
		{Name: "parentName", Label: "Nama Orang Tua/Wali", Kind: FieldText, Required: true},
		{Name: "parentNik", Label: "NIK Orang Tua/Wali", Kind: FieldText, Required: true, NationalID: true},
		{Name: "birthDate", Label: "Tanggal Lahir Bayi", Kind: FieldDate, Required: true},
		{Name: "babyGender", Label: "Jenis Kelamin Bayi", Kind: FieldSelect, Required: true, Options: []string{"male", "female"}},
	},
	models.LetterTypeMutation: {
		{Name: "name", Label: "Nama", Kind: FieldText, Required: true},
		{Name: "nik", Label: "NIK", Kind: FieldText, Required: true, NationalID: true},
		{Name: "moveDate", Label: "Tanggal Pindah", Kind: FieldDate, Required: true},
		{Name: "oldAddress", Label: "Alamat Lama", Kind: FieldMultiline, Required: true},
		{Name: "newAddress", Label: "Alamat Baru", Kind: FieldMultiline, Required: true},
		{Name: "mutationType", Label: "Jenis Mutasi", Kind: FieldSelect, Required: true, Options: []string{"incoming", "outgoing"}},
	},
	models.LetterTypeOther: {
		{Name: "applicantName", Label: "Nama Pemohon", Kind: FieldText, Required: true},
		{Name: "applicantNik", Label: "NIK Pemohon", Kind: FieldText, Required: true, NationalID: true},
		{Name: "letterSubtype", Label: "Jenis Surat", Kind: FieldText, Required: true},
		{Name: "description", Label: "Keterangan", Kind: FieldMultiline, Required: true},
	},
}

// Schema returns the declared field list for a letter type.
func Schema(letterType models.LetterType) ([]Field, bool) {
	fields, ok := schemas[letterType]
	return fields, ok
}

// ParseDetails decodes raw JSON details into a field map. A decode failure
// is a client error, not a server fault.
func ParseDetails(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format detail pengajuan tidak valid")
	}
	details := make(map[string]string, len(decoded))
	for key, value := range decoded {
		switch v := value.(type) {
		case string:
			details[key] = v
		case nil:
			details[key] = ""
		default:
			details[key] = fmt.Sprintf("%v", v)
		}
	}
	return details, nil
}

// Validate checks the details map against the declared schema for the type.
// Extra undeclared keys are tolerated and ignored.
func Validate(letterType models.LetterType, details map[string]string) error {
	fields, ok := schemas[letterType]
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "jenis surat tidak valid")
	}
	for _, field := range fields {
		value := strings.TrimSpace(details[field.Name])
		if value == "" {
			if field.Required {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s wajib diisi", field.Label))
			}
			continue
		}
		if field.NationalID && !validNIK(value) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s harus terdiri dari 16 digit angka", field.Label))
		}
		if field.Kind == FieldSelect && !contains(field.Options, value) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s tidak valid", field.Label))
		}
	}
	return nil
}

// Normalize returns a copy of details containing only declared fields.
// Values for undeclared keys never reach the rendered document.
func Normalize(letterType models.LetterType, details map[string]string) map[string]string {
	fields, ok := schemas[letterType]
	if !ok || details == nil {
		return nil
	}
	normalized := make(map[string]string, len(fields))
	for _, field := range fields {
		if value, present := details[field.Name]; present {
			normalized[field.Name] = strings.TrimSpace(value)
		}
	}
	return normalized
}

func validNIK(value string) bool {
	if len(value) != 16 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
