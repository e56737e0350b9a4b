package invoice

import (
	"testing"
	"time"

	"kilnhouse/models"

	"github.com/stretchr/testify/assert"
)

func sampleOrder() *models.Order {
	return &models.Order{
		OrderID: "ord_test123",
		Contact: models.Contact{Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"},
		Shipping: models.Address{
			Line1: "12 Pottery Lane", City: "Bengaluru",
			State: "Karnataka", StateCode: "29", Pincode: "560001",
		},
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Stoneware Mug", HSNCode: "6912", Qty: 2, UnitPrice: 450, GSTRate: 12},
			{ProductID: "p2", Name: "Serving Bowl", HSNCode: "6912", Qty: 1, UnitPrice: 1200, GSTRate: 12},
		},
		Subtotal:    2100,
		Tax:         models.TaxBreakup{CGST: 126, SGST: 126, Total: 252},
		ShippingFee: 80,
		Total:       2432,
		Status:      models.OrderConfirmed,
	}
}

func sampleBusiness() *models.BusinessSettings {
	return &models.BusinessSettings{
		LegalName: "Kiln House Ceramics LLP",
		TradeName: "Kiln House",
		GSTIN:     "29ABCDE1234F1Z5",
		Address:   models.Address{Line1: "4 Studio Road", City: "Bengaluru", Pincode: "560034"},
		State:     "Karnataka", StateCode: "29",
		Bank:          models.BankDetails{AccountName: "Kiln House", AccountNumber: "1234567890", IFSC: "HDFC0000123", BankName: "HDFC Bank", UPI: "kilnhouse@upi"},
		InvoicePrefix: "KH",
	}
}

func TestQRPayloadRoundTrip(t *testing.T) {
	payload := QRPayload("KH-2025-0001", "ord_test123", 2432)
	assert.True(t, VerifyQRPayload(payload))
}

func TestVerifyQRPayloadTampered(t *testing.T) {
	payload := QRPayload("KH-2025-0001", "ord_test123", 2432)
	assert.False(t, VerifyQRPayload("KH-2025-0002"+payload[12:]), "altered number must fail")
	assert.False(t, VerifyQRPayload(""), "empty payload must fail")
	assert.False(t, VerifyQRPayload("no-signature-here"), "payload without separator must fail")
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(sampleOrder(), sampleBusiness(), "KH-2025-0001", time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.True(t, len(out) > 1000, "expected a non-trivial document")
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderInterStateUsesIGST(t *testing.T) {
	order := sampleOrder()
	order.Shipping.State = "Maharashtra"
	order.Shipping.StateCode = "27"
	order.Tax = models.TaxBreakup{IGST: 252, Total: 252}

	out, err := Render(order, sampleBusiness(), "KH-2025-0002", time.Now())
	assert.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderRegisteredBuyerGetsTaxInvoice(t *testing.T) {
	order := sampleOrder()
	order.GSTIN = "27ZYXWV9876K1Z2"

	out, err := Render(order, sampleBusiness(), "KH-2025-0003", time.Now())
	assert.NoError(t, err)
	assert.NotEmpty(t, out)
}
