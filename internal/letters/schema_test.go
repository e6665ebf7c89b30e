package letters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
)

func TestSchemaKnownTypes(t *testing.T) {
	for _, letterType := range []models.LetterType{
		models.LetterTypeDeath,
		models.LetterTypeBirth,
		models.LetterTypeMutation,
		models.LetterTypeOther,
	} {
		fields, ok := Schema(letterType)
		require.True(t, ok, "schema missing for %s", letterType)
		require.NotEmpty(t, fields)
	}

	_, ok := Schema(models.LetterType("marriage"))
	require.False(t, ok)
}

func TestParseDetailsMalformed(t *testing.T) {
	_, err := ParseDetails([]byte(`{"a":`))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParseDetailsCoercesValues(t *testing.T) {
	details, err := ParseDetails([]byte(`{"name":"Budi","count":3,"empty":null}`))
	require.NoError(t, err)
	require.Equal(t, "Budi", details["name"])
	require.Equal(t, "3", details["count"])
	require.Equal(t, "", details["empty"])
}

func TestParseDetailsEmpty(t *testing.T) {
	details, err := ParseDetails(nil)
	require.NoError(t, err)
	require.Nil(t, details)
}

func TestValidateRequiredFields(t *testing.T) {
	err := Validate(models.LetterTypeBirth, map[string]string{
		"parentName": "Budi",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Nama Bayi")
}

func TestValidateWhitespaceOnlyIsMissing(t *testing.T) {
	err := Validate(models.LetterTypeBirth, map[string]string{
		"babyName":   "   ",
		"parentName": "Budi",
		"parentNik":  "3174012345678901",
		"birthDate":  "2026-01-15",
		"babyGender": "female",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Nama Bayi")
}

func TestValidateNIKFormat(t *testing.T) {
	details := map[string]string{
		"babyName":   "Siti",
		"parentName": "Budi",
		"parentNik":  "12345",
		"birthDate":  "2026-01-15",
		"babyGender": "female",
	}
	err := Validate(models.LetterTypeBirth, details)
	require.Error(t, err)
	require.Contains(t, err.Error(), "16 digit")

	details["parentNik"] = "3174012345678901"
	require.NoError(t, Validate(models.LetterTypeBirth, details))
}

func TestValidateSelectOptions(t *testing.T) {
	details := map[string]string{
		"name":         "Budi",
		"nik":          "3174012345678901",
		"moveDate":     "2026-02-01",
		"oldAddress":   "Jl. Melati 10",
		"newAddress":   "Jl. Mawar 5",
		"mutationType": "sideways",
	}
	err := Validate(models.LetterTypeMutation, details)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Jenis Mutasi")

	details["mutationType"] = "incoming"
	require.NoError(t, Validate(models.LetterTypeMutation, details))
}

func TestValidateOptionalFieldMayBeAbsent(t *testing.T) {
	err := Validate(models.LetterTypeDeath, map[string]string{
		"deceasedName":  "Alm. Ahmad",
		"deceasedNik":   "3174019876543210",
		"deathDate":     "2026-03-01",
		"deathLocation": "RS Harapan",
	})
	require.NoError(t, err)
}

func TestValidateUnknownType(t *testing.T) {
	err := Validate(models.LetterType("marriage"), map[string]string{})
	require.Error(t, err)
}

func TestValidateToleratesExtraKeys(t *testing.T) {
	err := Validate(models.LetterTypeOther, map[string]string{
		"applicantName": "Budi",
		"applicantNik":  "3174012345678901",
		"letterSubtype": "domisili",
		"description":   "keperluan bank",
		"unexpected":    "ignored",
	})
	require.NoError(t, err)
}

func TestNormalizeDropsUndeclaredKeys(t *testing.T) {
	normalized := Normalize(models.LetterTypeOther, map[string]string{
		"applicantName": " Budi ",
		"unexpected":    "ignored",
	})
	require.Equal(t, map[string]string{"applicantName": "Budi"}, normalized)

	require.Nil(t, Normalize(models.LetterTypeOther, nil))
	require.Nil(t, Normalize(models.LetterType("marriage"), map[string]string{"a": "b"}))
}
