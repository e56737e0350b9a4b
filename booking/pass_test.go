package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassPayloadRoundTrip(t *testing.T) {
	payload := PassPayload("bk_abc123", "2026-09-01", "10:00", 3)

	id, ok := VerifyPassPayload(payload)
	assert.True(t, ok)
	assert.Equal(t, "bk_abc123", id)
}

func TestVerifyPassPayloadTampered(t *testing.T) {
	payload := PassPayload("bk_abc123", "2026-09-01", "10:00", 3)

	// bump the guest count, keep the signature
	forged := strings.Replace(payload, "|3|", "|6|", 1)
	_, ok := VerifyPassPayload(forged)
	assert.False(t, ok)

	_, ok = VerifyPassPayload("")
	assert.False(t, ok)

	_, ok = VerifyPassPayload("just-some-text")
	assert.False(t, ok)
}
