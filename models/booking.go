package models

import "time"

// Slot is one bookable time window of a workshop or experience.
// Capacity accounting happens on this document: booked is only ever
// changed through conditional updates, so booked <= maxSpots holds.
type Slot struct {
	SlotID     string `json:"slotid" bson:"slotid"`
	EntityType string `json:"entityType" bson:"entityType"` // workshop | experience
	EntityID   string `json:"entityId" bson:"entityId"`
	Date       string `json:"date" bson:"date"` // YYYY-MM-DD
	Time       string `json:"time" bson:"time"` // HH:MM
	MaxSpots   int    `json:"max_spots" bson:"max_spots"`
	Booked     int    `json:"booked" bson:"booked"`
	CreatedAt  int64  `json:"createdAt" bson:"createdAt"`
}

type Contact struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

type Booking struct {
	BookingID    string    `json:"bookingid" bson:"bookingid"`
	EntityType   string    `json:"entityType" bson:"entityType"`
	EntityID     string    `json:"entityId" bson:"entityId"`
	EntityTitle  string    `json:"entityTitle,omitempty" bson:"entityTitle,omitempty"`
	UserID       string    `json:"userId,omitempty" bson:"userId,omitempty"`
	Contact      Contact   `json:"contact" bson:"contact"`
	Date         string    `json:"date" bson:"date"`
	Time         string    `json:"time" bson:"time"`
	Guests       int       `json:"guests" bson:"guests"`
	Note         string    `json:"note,omitempty" bson:"note,omitempty"`
	Amount       float64   `json:"amount" bson:"amount"`
	Status       string    `json:"status" bson:"status"`
	RzpOrderID   string    `json:"rzp_order_id,omitempty" bson:"rzp_order_id,omitempty"`
	RzpPaymentID string    `json:"rzp_payment_id,omitempty" bson:"rzp_payment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
