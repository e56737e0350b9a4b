package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-2024-0001", FormatNumber("INV", 2024, 1))
	assert.Equal(t, "INV-2024-0042", FormatNumber("INV", 2024, 42))
	assert.Equal(t, "INV-2026-1234", FormatNumber("INV", 2026, 1234))
	assert.Equal(t, "INV-2024-10001", FormatNumber("INV", 2024, 10001), "sequence grows past the padding")
}

func TestFormatNumberPrefix(t *testing.T) {
	assert.Equal(t, "KH-2025-0007", FormatNumber("KH", 2025, 7))
	assert.Equal(t, "INV-2025-0007", FormatNumber("", 2025, 7), "empty prefix falls back to INV")
}
