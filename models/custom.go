package models

import "time"

// CustomOrderRequest is a commission enquiry submitted from the storefront.
type CustomOrderRequest struct {
	RequestID   string    `json:"requestid" bson:"requestid"`
	Name        string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	Phone       string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Description string    `json:"description" bson:"description"`
	Reference   string    `json:"reference,omitempty" bson:"reference,omitempty"` // uploaded image filename
	Budget      string    `json:"budget,omitempty" bson:"budget,omitempty"`
	Timeline    string    `json:"timeline,omitempty" bson:"timeline,omitempty"`
	Status      string    `json:"status" bson:"status"`
	AdminNote   string    `json:"admin_note,omitempty" bson:"admin_note,omitempty"`
	ReviewedBy  string    `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
