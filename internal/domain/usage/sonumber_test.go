package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSONumber(t *testing.T) {
	valid := []string{
		"20260217",             // 8 digits, valid date
		"2026021700530",        // 13 digits, valid date prefix
		"20260217005301234567", // 20 digits
		"20240229",             // leap day
	}
	for _, so := range valid {
		assert.NoError(t, ValidateSONumber(so), "%s", so)
	}

	invalid := []string{
		"",
		"1234567",               // 7 digits
		"202602170053012345678", // 21 digits
		"20261301",              // month 13
		"20260232",              // day 32
		"20230229",              // not a leap year
		"2026021a",              // non-digit
		"20260217-0053",         // punctuation
	}
	for _, so := range invalid {
		assert.Error(t, ValidateSONumber(so), "%s", so)
	}
}
