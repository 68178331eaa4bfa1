package models

import "gorm.io/gorm"

const MaxStars = 5

// ChallengeProgress is a user's star count on one challenge. Stars only grow.
type ChallengeProgress struct {
	gorm.Model
	UserID      uint `gorm:"uniqueIndex:idx_progress_user_challenge;not null"`
	ChallengeID uint `gorm:"uniqueIndex:idx_progress_user_challenge;not null"`
	Stars       int  `gorm:"not null;default:0;check:stars>=0 AND stars<=5"`
}

type ProgressOverview struct {
	TotalStars          int `json:"totalStars"`
	ChallengesAttempted int `json:"challengesAttempted"`
	ChallengesPassed    int `json:"challengesPassed"`
	PerfectChallenges   int `json:"perfectChallenges"`
	HighestUnlockedTier int `json:"highestUnlockedTier"`
	TotalChallenges     int `json:"totalChallenges"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&WaniKaniConnection{},
		&Challenge{},
		&Sentence{},
		&ChallengeProgress{},
	}
}
