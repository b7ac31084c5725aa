package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDTO(t *testing.T) {
	ref := "  ref-1 "
	var nilNotes *string
	dto := struct {
		Currency  string `normalize:"upper"`
		Method    string
		Reference *string
		Notes     *string
		Amount    int
	}{Currency: " eur ", Method: " bank_transfer\t", Reference: &ref, Notes: nilNotes, Amount: 3}

	NormalizeDTO(&dto)

	assert.Equal(t, "EUR", dto.Currency)
	assert.Equal(t, "bank_transfer", dto.Method)
	assert.Equal(t, "ref-1", *dto.Reference)
	assert.Nil(t, dto.Notes)
	assert.Equal(t, 3, dto.Amount)
}

func TestNormalizeDTOIgnoresNonPointer(t *testing.T) {
	dto := struct{ Name string }{Name: " x "}
	NormalizeDTO(dto)
	assert.Equal(t, " x ", dto.Name)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 3, ParseIntDefault(" 3 ", 1))
	assert.Equal(t, 1, ParseIntDefault("abc", 1))
	assert.Equal(t, 1, ParseIntDefault("-2", 1))
	assert.Equal(t, 0, ParseIntDefault("0", 1))
}
