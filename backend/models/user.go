package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string `gorm:"not null"`
}

// WaniKaniConnection holds the user's WaniKani API token, encrypted at rest.
type WaniKaniConnection struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex;not null"`
	TokenEnc string `gorm:"not null"`
}
