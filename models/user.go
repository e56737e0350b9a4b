package models

import "time"

type User struct {
	UserID        string    `json:"userid" bson:"userid"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	Password      string    `json:"-" bson:"password"`
	Role          []string  `json:"role" bson:"role"`
	Name          string    `json:"name,omitempty" bson:"name,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	Address       Address   `json:"address,omitempty" bson:"address,omitempty"`
	GSTIN         string    `json:"gstin,omitempty" bson:"gstin,omitempty"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
	LastLogin     time.Time `json:"last_login" bson:"last_login"`
	RefreshToken  string    `json:"-" bson:"refreshtoken,omitempty"`
	RefreshExpiry time.Time `json:"-" bson:"refreshexp,omitempty"`
}

// UserProfileResponse is the public view of a user document.
type UserProfileResponse struct {
	UserID      string  `json:"userid" bson:"userid"`
	Username    string  `json:"username" bson:"username"`
	Name        string  `json:"name" bson:"name"`
	Email       string  `json:"email" bson:"email"`
	PhoneNumber string  `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	Address     Address `json:"address,omitempty" bson:"address,omitempty"`
	GSTIN       string  `json:"gstin,omitempty" bson:"gstin,omitempty"`
}
