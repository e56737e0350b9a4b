package gst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakdownIntraState(t *testing.T) {
	b := Breakdown(1000, 18, false)
	assert.Equal(t, 90.0, b.CGST)
	assert.Equal(t, 90.0, b.SGST)
	assert.Equal(t, 0.0, b.IGST)
	assert.Equal(t, 180.0, b.Total)
}

func TestBreakdownInterState(t *testing.T) {
	b := Breakdown(1000, 18, true)
	assert.Equal(t, 0.0, b.CGST)
	assert.Equal(t, 0.0, b.SGST)
	assert.Equal(t, 180.0, b.IGST)
	assert.Equal(t, 180.0, b.Total)
}

func TestBreakdownRounding(t *testing.T) {
	// 333.33 at 5%: halves are 8.33325 each, rounded per line
	b := Breakdown(333.33, 5, false)
	assert.Equal(t, 8.33, b.CGST)
	assert.Equal(t, 8.33, b.SGST)
	assert.Equal(t, 16.66, b.Total)

	inter := Breakdown(333.33, 5, true)
	assert.Equal(t, 16.67, inter.IGST)
}

func TestBreakdownZeroAndNegative(t *testing.T) {
	assert.Equal(t, Breakup{}, Breakdown(0, 18, false))
	assert.Equal(t, Breakup{}, Breakdown(-50, 18, true))
	assert.Equal(t, Breakup{}, Breakdown(100, 0, false))
}

func TestInterState(t *testing.T) {
	assert.False(t, InterState("29", "29"), "same state code stays intra-state")
	assert.True(t, InterState("27", "29"))
	assert.True(t, InterState("", "29"), "unknown buyer state defaults to inter-state")
	assert.True(t, InterState("27", ""))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, Round2(10.556))
	assert.Equal(t, 10.55, Round2(10.554))
	assert.Equal(t, -2.35, Round2(-2.346))
	assert.Equal(t, 0.0, Round2(0))
}

func TestValidGSTIN(t *testing.T) {
	assert.True(t, ValidGSTIN("29ABCDE1234F1Z5"))
	assert.True(t, ValidGSTIN("27AAPFU0939F1ZV"))

	assert.False(t, ValidGSTIN(""))
	assert.False(t, ValidGSTIN("29ABCDE1234F1Z"), "14 characters")
	assert.False(t, ValidGSTIN("29abcde1234f1z5"), "lowercase")
	assert.False(t, ValidGSTIN("2XABCDE1234F1Z5"), "state code must be digits")
	assert.False(t, ValidGSTIN("29ABCDE1234F1X5"), "14th character must be Z")
}

func TestStateCodeFromGSTIN(t *testing.T) {
	assert.Equal(t, "29", StateCodeFromGSTIN("29ABCDE1234F1Z5"))
	assert.Equal(t, "", StateCodeFromGSTIN("2"))
	assert.Equal(t, "", StateCodeFromGSTIN(""))
}
