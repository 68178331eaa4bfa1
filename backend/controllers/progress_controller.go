package controllers

import (
	"kotoba/backend/config"
	"kotoba/backend/middleware"
	"kotoba/backend/models"
	"kotoba/backend/pronunciation"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetProgressOverview godoc
// @Summary Get progress overview
// @Description Star totals and the highest tier the user has unlocked
// @Tags progress
// @Produce json
// @Success 200 {object} models.ProgressOverview
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/overview [get]
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	stars, err := starsByOrder(pc.DB, userID)
	if err != nil {
		return utils.InternalError("Could not query progress", err)
	}

	var totalChallenges int64
	var maxOrder int
	if err := pc.DB.Model(&models.Challenge{}).Count(&totalChallenges).Error; err != nil {
		return utils.InternalError("Could not query challenges", err)
	}
	if err := pc.DB.Model(&models.Challenge{}).Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder).Error; err != nil {
		return utils.InternalError("Could not query challenges", err)
	}

	overview := models.ProgressOverview{
		TotalChallenges:     int(totalChallenges),
		HighestUnlockedTier: pronunciation.HighestUnlockedTier(maxOrder, stars),
	}
	for _, s := range stars {
		overview.TotalStars += s
		overview.ChallengesAttempted++
		if s >= pronunciation.UnlockStars {
			overview.ChallengesPassed++
		}
		if s == models.MaxStars {
			overview.PerfectChallenges++
		}
	}

	return c.JSON(overview)
}

// starsByOrder snapshots a user's stars keyed by challenge order index.
func starsByOrder(db *gorm.DB, userID uint) (map[int]int, error) {
	var rows []struct {
		OrderIndex int
		Stars      int
	}
	err := db.Table("challenge_progresses AS p").
		Select("c.order_index, p.stars").
		Joins("JOIN challenges AS c ON c.id = p.challenge_id AND c.deleted_at IS NULL").
		Where("p.user_id = ? AND p.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stars := make(map[int]int, len(rows))
	for _, r := range rows {
		stars[r.OrderIndex] = r.Stars
	}
	return stars, nil
}
