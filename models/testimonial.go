package models

import "time"

type VideoTestimonial struct {
	TestimonialID string    `json:"testimonialid" bson:"testimonialid"`
	CustomerName  string    `json:"customer_name" bson:"customer_name"`
	VideoURL      string    `json:"video_url" bson:"video_url"`
	Caption       string    `json:"caption,omitempty" bson:"caption,omitempty"`
	Approved      bool      `json:"approved" bson:"approved"`
	SortOrder     int       `json:"sort_order" bson:"sort_order"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}
