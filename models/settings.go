package models

import "time"

type BankDetails struct {
	AccountName   string `json:"account_name,omitempty" bson:"account_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty" bson:"account_number,omitempty"`
	IFSC          string `json:"ifsc,omitempty" bson:"ifsc,omitempty"`
	BankName      string `json:"bank_name,omitempty" bson:"bank_name,omitempty"`
	UPI           string `json:"upi,omitempty" bson:"upi,omitempty"`
}

// BusinessSettings is a singleton document keyed by SettingsKey. The state
// code is the place-of-supply origin every GST split is computed against.
type BusinessSettings struct {
	Key           string      `json:"-" bson:"key"`
	LegalName     string      `json:"legal_name" bson:"legal_name"`
	TradeName     string      `json:"trade_name" bson:"trade_name"`
	GSTIN         string      `json:"gstin" bson:"gstin"`
	Address       Address     `json:"address" bson:"address"`
	State         string      `json:"state" bson:"state"`
	StateCode     string      `json:"state_code" bson:"state_code"`
	Phone         string      `json:"phone,omitempty" bson:"phone,omitempty"`
	Email         string      `json:"email,omitempty" bson:"email,omitempty"`
	Logo          string      `json:"logo,omitempty" bson:"logo,omitempty"`
	Bank          BankDetails `json:"bank" bson:"bank"`
	InvoicePrefix string      `json:"invoice_prefix,omitempty" bson:"invoice_prefix,omitempty"`
	ShippingFee   float64     `json:"shipping_fee" bson:"shipping_fee"`
	FreeShipAbove float64     `json:"free_ship_above" bson:"free_ship_above"`
	UpdatedAt     time.Time   `json:"updated_at" bson:"updated_at"`
}

const SettingsKey = "business"
