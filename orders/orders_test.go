package orders

import (
	"testing"

	"kilnhouse/models"

	"github.com/stretchr/testify/assert"
)

func cartItems() []models.OrderItem {
	return []models.OrderItem{
		{ProductID: "p1", Name: "Dinner plate set", Qty: 2, UnitPrice: 400, GSTRate: 12},
		{ProductID: "p2", Name: "Chai kulhad", Qty: 4, UnitPrice: 50, GSTRate: 5},
	}
}

func TestItemsSubtotal(t *testing.T) {
	assert.Equal(t, 1000.0, itemsSubtotal(cartItems()))
}

func TestComputeTaxIntraState(t *testing.T) {
	items := []models.OrderItem{{ProductID: "p1", Qty: 1, UnitPrice: 1000, GSTRate: 12}}
	tax := computeTax(items, 1000, 0, false)

	assert.Equal(t, 60.0, tax.CGST)
	assert.Equal(t, 60.0, tax.SGST)
	assert.Equal(t, 0.0, tax.IGST)
	assert.Equal(t, 120.0, tax.Total)
}

func TestComputeTaxInterState(t *testing.T) {
	items := []models.OrderItem{{ProductID: "p1", Qty: 1, UnitPrice: 1000, GSTRate: 12}}
	tax := computeTax(items, 1000, 0, true)

	assert.Equal(t, 0.0, tax.CGST)
	assert.Equal(t, 120.0, tax.IGST)
	assert.Equal(t, 120.0, tax.Total)
}

// A 10% coupon must shrink every line's taxable value before its own rate
// applies, not come off the final total.
func TestComputeTaxDiscountSpreadsAcrossLines(t *testing.T) {
	items := cartItems() // 800 @ 12% + 200 @ 5%
	tax := computeTax(items, 1000, 100, false)

	// 720 @ 12% = 86.40, 180 @ 5% = 9.00
	assert.Equal(t, 47.70, tax.CGST)
	assert.Equal(t, 47.70, tax.SGST)
	assert.Equal(t, 95.40, tax.Total)
}

func TestShippingFee(t *testing.T) {
	biz := &models.BusinessSettings{ShippingFee: 80, FreeShipAbove: 2000}

	assert.Equal(t, 80.0, shippingFee(biz, 1999))
	assert.Equal(t, 0.0, shippingFee(biz, 2000))

	// threshold disabled
	noFree := &models.BusinessSettings{ShippingFee: 80}
	assert.Equal(t, 80.0, shippingFee(noFree, 1e6))
}

func TestStockHeld(t *testing.T) {
	assert.True(t, stockHeld(models.OrderPending))
	assert.True(t, stockHeld(models.OrderConfirmed))
	assert.True(t, stockHeld(models.OrderProcessing))
	assert.False(t, stockHeld(models.OrderShipped))
	assert.False(t, stockHeld(models.OrderDelivered))
	assert.False(t, stockHeld(models.OrderCancelled))
}
