package models

import "time"

// Workshop is a scheduled class with dated, capacity-limited slots.
type Workshop struct {
	WorkshopID  string    `json:"workshopid" bson:"workshopid"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"` // per spot
	GSTRate     float64   `json:"gst_rate" bson:"gst_rate"`
	Duration    string    `json:"duration,omitempty" bson:"duration,omitempty"`
	Location    string    `json:"location,omitempty" bson:"location,omitempty"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	Thumb       string    `json:"thumb,omitempty" bson:"thumb,omitempty"`
	Active      bool      `json:"active" bson:"active"`
	CreatedBy   string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Experience is a drop-in studio session booked through the same slot model.
type Experience struct {
	ExperienceID string    `json:"experienceid" bson:"experienceid"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	Price        float64   `json:"price" bson:"price"` // per guest
	GSTRate      float64   `json:"gst_rate" bson:"gst_rate"`
	Duration     string    `json:"duration,omitempty" bson:"duration,omitempty"`
	Includes     []string  `json:"includes,omitempty" bson:"includes,omitempty"`
	Image        string    `json:"image,omitempty" bson:"image,omitempty"`
	Thumb        string    `json:"thumb,omitempty" bson:"thumb,omitempty"`
	Active       bool      `json:"active" bson:"active"`
	CreatedBy    string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type Product struct {
	ProductID   string    `json:"productid" bson:"productid"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	GSTRate     float64   `json:"gst_rate" bson:"gst_rate"`
	HSNCode     string    `json:"hsn_code,omitempty" bson:"hsn_code,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	Thumb       string    `json:"thumb,omitempty" bson:"thumb,omitempty"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
