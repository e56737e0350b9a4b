// Package gst computes Indian GST breakups for orders and bookings.
// Intra-state supplies split the rate into CGST and SGST halves;
// inter-state supplies charge the full rate as IGST.
package gst

import (
	"math"
	"regexp"
)

type Breakup struct {
	CGST  float64 `json:"cgst"`
	SGST  float64 `json:"sgst"`
	IGST  float64 `json:"igst"`
	Total float64 `json:"total"`
}

// Round2 rounds to two decimals, half away from zero, which is how invoice
// amounts are expected to appear.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Breakdown computes the tax on a taxable value at the given percent rate.
func Breakdown(taxable, rate float64, interState bool) Breakup {
	if taxable <= 0 || rate <= 0 {
		return Breakup{}
	}

	if interState {
		igst := Round2(taxable * rate / 100)
		return Breakup{IGST: igst, Total: igst}
	}

	half := Round2(taxable * rate / 200)
	return Breakup{CGST: half, SGST: half, Total: Round2(half * 2)}
}

// InterState reports whether the supply leaves the seller's state. An
// unknown buyer state code is treated as inter-state, so remote orders
// without an address yet default to IGST.
func InterState(buyerStateCode, sellerStateCode string) bool {
	if buyerStateCode == "" || sellerStateCode == "" {
		return true
	}
	return buyerStateCode != sellerStateCode
}

// state code + PAN + entity code + Z + check character
var gstinRe = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

// ValidGSTIN checks the standard 15 character GSTIN layout.
func ValidGSTIN(gstin string) bool {
	return gstinRe.MatchString(gstin)
}

// StateCodeFromGSTIN returns the registration's two digit state prefix.
func StateCodeFromGSTIN(gstin string) string {
	if len(gstin) < 2 {
		return ""
	}
	return gstin[:2]
}
