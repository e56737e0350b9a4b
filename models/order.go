package models

import "time"

type Address struct {
	Line1     string `json:"line1,omitempty" bson:"line1,omitempty"`
	Line2     string `json:"line2,omitempty" bson:"line2,omitempty"`
	City      string `json:"city,omitempty" bson:"city,omitempty"`
	State     string `json:"state,omitempty" bson:"state,omitempty"`
	StateCode string `json:"state_code,omitempty" bson:"state_code,omitempty"`
	Pincode   string `json:"pincode,omitempty" bson:"pincode,omitempty"`
}

type OrderItem struct {
	ProductID string  `json:"productid" bson:"productid"`
	Name      string  `json:"name" bson:"name"`
	HSNCode   string  `json:"hsn_code,omitempty" bson:"hsn_code,omitempty"`
	Qty       int     `json:"qty" bson:"qty"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
	GSTRate   float64 `json:"gst_rate" bson:"gst_rate"`
}

// TaxBreakup carries either CGST+SGST (intra-state) or IGST (inter-state).
type TaxBreakup struct {
	CGST  float64 `json:"cgst" bson:"cgst"`
	SGST  float64 `json:"sgst" bson:"sgst"`
	IGST  float64 `json:"igst" bson:"igst"`
	Total float64 `json:"total" bson:"total"`
}

type Discount struct {
	Code   string  `json:"code,omitempty" bson:"code,omitempty"`
	Amount float64 `json:"amount" bson:"amount"`
}

type Order struct {
	OrderID      string      `json:"orderid" bson:"orderid"`
	UserID       string      `json:"userId,omitempty" bson:"userId,omitempty"`
	Contact      Contact     `json:"contact" bson:"contact"`
	GSTIN        string      `json:"gstin,omitempty" bson:"gstin,omitempty"` // buyer GSTIN, optional
	Shipping     Address     `json:"shipping" bson:"shipping"`
	Items        []OrderItem `json:"items" bson:"items"`
	Subtotal     float64     `json:"subtotal" bson:"subtotal"`
	Discount     Discount    `json:"discount" bson:"discount"`
	ShippingFee  float64     `json:"shipping_fee" bson:"shipping_fee"`
	Tax          TaxBreakup  `json:"tax" bson:"tax"`
	Total        float64     `json:"total" bson:"total"`
	Status       string      `json:"status" bson:"status"`
	RzpOrderID   string      `json:"rzp_order_id,omitempty" bson:"rzp_order_id,omitempty"`
	RzpPaymentID string      `json:"rzp_payment_id,omitempty" bson:"rzp_payment_id,omitempty"`
	InvoiceNo    string      `json:"invoice_no,omitempty" bson:"invoice_no,omitempty"`
	InvoiceURL   string      `json:"invoice_url,omitempty" bson:"invoice_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

type Coupon struct {
	Code      string    `bson:"code" json:"code"`
	Discount  float64   `bson:"discount" json:"discount"` // % value e.g. 10 means 10%
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	Active    bool      `bson:"active" json:"active"`
}
