package models

import "time"

// PaymentRecord is one verified gateway payment, kept for the admin ledger.
type PaymentRecord struct {
	PaymentID    string    `json:"paymentid" bson:"paymentid"`
	EntityType   string    `json:"entityType" bson:"entityType"` // booking | order
	EntityID     string    `json:"entityId" bson:"entityId"`
	RzpOrderID   string    `json:"rzp_order_id" bson:"rzp_order_id"`
	RzpPaymentID string    `json:"rzp_payment_id" bson:"rzp_payment_id"`
	Amount       float64   `json:"amount" bson:"amount"`
	Status       string    `json:"status" bson:"status"` // verified | failed
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	UserID      string                 `bson:"user_id,omitempty" json:"user_id,omitempty"`
	RequestHash string                 `bson:"request_hash" json:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at" json:"expires_at"`
}
