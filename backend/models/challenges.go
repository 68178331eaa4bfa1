package models

import "gorm.io/gorm"

type Challenge struct {
	gorm.Model
	OrderIndex int    `gorm:"uniqueIndex;not null;check:order_index>0"`
	Title      string `gorm:"not null"`
	Sentences  []Sentence
}

type Sentence struct {
	gorm.Model
	ChallengeID  uint   `gorm:"index;not null"`
	JPText       string `gorm:"not null"`
	JPReading    string `gorm:"not null"` // kana
	FuriganaHTML *string
	ENText       string
}
