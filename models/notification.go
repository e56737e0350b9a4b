package models

import "time"

// Event is the payload published on the notify channel. Every feature that
// wants the back office to hear about something emits one of these.
type Event struct {
	Kind       string  `json:"kind"` // booking | order | custom_order | payment | invoice
	EntityType string  `json:"entity_type,omitempty"`
	EntityID   string  `json:"entity_id"`
	Title      string  `json:"title"`
	Body       string  `json:"body,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

type AdminNotification struct {
	NotificationID string    `json:"notificationid" bson:"notificationid"`
	Kind           string    `json:"kind" bson:"kind"`
	EntityType     string    `json:"entity_type,omitempty" bson:"entity_type,omitempty"`
	EntityID       string    `json:"entity_id" bson:"entity_id"`
	Title          string    `json:"title" bson:"title"`
	Body           string    `json:"body,omitempty" bson:"body,omitempty"`
	Read           bool      `json:"read" bson:"read"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
