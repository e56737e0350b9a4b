package invoice

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"kilnhouse/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

func signingSecret() string {
	if s := os.Getenv("INVOICE_SIGNING_SECRET"); s != "" {
		return s
	}
	return "kilnhouse_invoice_secret"
}

// QRPayload returns number|orderid|total|signature so a scanned invoice can
// be checked against the books without a database lookup.
func QRPayload(number, orderID string, total float64) string {
	data := fmt.Sprintf("%s|%s|%.2f", number, orderID, total)
	h := hmac.New(sha256.New, []byte(signingSecret()))
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyQRPayload re-derives the signature over the payload's data part.
func VerifyQRPayload(payload string) bool {
	idx := lastPipe(payload)
	if idx < 0 {
		return false
	}
	data, sig := payload[:idx], payload[idx+1:]
	h := hmac.New(sha256.New, []byte(signingSecret()))
	h.Write([]byte(data))
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

func lastPipe(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '|' {
			return i
		}
	}
	return -1
}

const rupee = "Rs. " // core PDF fonts have no rupee glyph

// Render lays out a single page A4 invoice. A missing logo file degrades to
// a text-only header; everything else on the page comes from the order and
// the business settings, both already validated by the caller.
func Render(order *models.Order, biz *models.BusinessSettings, number string, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header: business identity left, logo right when available
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(130, 8, biz.TradeName)
	if biz.Logo != "" {
		if _, err := os.Stat(biz.Logo); err == nil {
			pdf.ImageOptions(biz.Logo, 165, 10, 30, 0, false, gofpdf.ImageOptions{}, 0, "")
		}
	}
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	if biz.LegalName != "" && biz.LegalName != biz.TradeName {
		pdf.Cell(130, 5, biz.LegalName)
		pdf.Ln(5)
	}
	pdf.Cell(130, 5, addressLine(biz.Address))
	pdf.Ln(5)
	pdf.Cell(130, 5, fmt.Sprintf("GSTIN: %s", biz.GSTIN))
	pdf.Ln(5)
	if biz.Phone != "" || biz.Email != "" {
		pdf.Cell(130, 5, fmt.Sprintf("%s  %s", biz.Phone, biz.Email))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Title depends on whether the buyer is registered
	title := "INVOICE"
	if order.GSTIN != "" {
		title = "TAX INVOICE"
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 8, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Invoice meta
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 5, fmt.Sprintf("Invoice No: %s", number))
	pdf.Cell(95, 5, fmt.Sprintf("Date: %s", issuedAt.Format("02 Jan 2006")))
	pdf.Ln(5)
	pdf.Cell(95, 5, fmt.Sprintf("Order Ref: %s", order.OrderID))
	pdf.Ln(8)

	// Bill-to and place of supply
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(95, 5, "Bill To:")
	pdf.Cell(95, 5, "Place of Supply:")
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 5, order.Contact.Name)
	pdf.Cell(95, 5, fmt.Sprintf("%s (%s)", order.Shipping.State, order.Shipping.StateCode))
	pdf.Ln(5)
	pdf.Cell(95, 5, addressLine(order.Shipping))
	pdf.Ln(5)
	if order.GSTIN != "" {
		pdf.Cell(95, 5, fmt.Sprintf("Buyer GSTIN: %s", order.GSTIN))
		pdf.Ln(5)
	}
	if order.Contact.Phone != "" {
		pdf.Cell(95, 5, order.Contact.Phone)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Line items
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(75, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "HSN", "1", 0, "C", true, 0, "")
	pdf.CellFormat(15, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Rate", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for i, item := range order.Items {
		amount := float64(item.Qty) * item.UnitPrice
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 6, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, item.HSNCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", item.Qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals column on the right
	totalRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.Cell(95, 6, "")
		pdf.CellFormat(60, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, value, "", 1, "R", false, 0, "")
	}

	totalRow("Subtotal", fmt.Sprintf("%s%.2f", rupee, order.Subtotal), false)
	if order.Discount.Amount > 0 {
		label := "Discount"
		if order.Discount.Code != "" {
			label = fmt.Sprintf("Discount (%s)", order.Discount.Code)
		}
		totalRow(label, fmt.Sprintf("-%s%.2f", rupee, order.Discount.Amount), false)
	}
	if order.Tax.IGST > 0 {
		totalRow("IGST", fmt.Sprintf("%s%.2f", rupee, order.Tax.IGST), false)
	} else if order.Tax.Total > 0 {
		totalRow("CGST", fmt.Sprintf("%s%.2f", rupee, order.Tax.CGST), false)
		totalRow("SGST", fmt.Sprintf("%s%.2f", rupee, order.Tax.SGST), false)
	}
	if order.ShippingFee > 0 {
		totalRow("Shipping", fmt.Sprintf("%s%.2f", rupee, order.ShippingFee), false)
	}
	totalRow("Grand Total", fmt.Sprintf("%s%.2f", rupee, order.Total), true)
	pdf.Ln(6)

	// Bank details
	if biz.Bank.AccountNumber != "" || biz.Bank.UPI != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(95, 5, "Payment Details")
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 9)
		if biz.Bank.AccountNumber != "" {
			pdf.Cell(95, 5, fmt.Sprintf("A/c: %s (%s)", biz.Bank.AccountNumber, biz.Bank.AccountName))
			pdf.Ln(5)
			pdf.Cell(95, 5, fmt.Sprintf("IFSC: %s  Bank: %s", biz.Bank.IFSC, biz.Bank.BankName))
			pdf.Ln(5)
		}
		if biz.Bank.UPI != "" {
			pdf.Cell(95, 5, fmt.Sprintf("UPI: %s", biz.Bank.UPI))
			pdf.Ln(5)
		}
	}

	// Verification QR bottom-right
	qrPNG, err := qrcode.Encode(QRPayload(number, order.OrderID, order.Total), qrcode.Medium, 256)
	if err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("invoice-qr", opts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("invoice-qr", 160, 240, 35, 35, false, opts, 0, "")
	}

	pdf.SetY(255)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(120, 5, "This is a computer generated invoice.")
	pdf.Ln(5)
	pdf.Cell(120, 5, "Thank you for supporting handmade pottery.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice render: %w", err)
	}
	return buf.Bytes(), nil
}

func addressLine(a models.Address) string {
	line := a.Line1
	if a.Line2 != "" {
		line += ", " + a.Line2
	}
	if a.City != "" {
		line += ", " + a.City
	}
	if a.Pincode != "" {
		line += " - " + a.Pincode
	}
	return line
}
