package controllers

import (
	"strconv"
	"strings"

	"kotoba/backend/config"
	"kotoba/backend/middleware"
	"kotoba/backend/models"
	"kotoba/backend/pronunciation"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxSearchResults = 50

type OverviewController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewOverviewController(db *gorm.DB, cfg *config.Config) *OverviewController {
	return &OverviewController{DB: db, Cfg: cfg}
}

// SearchSentences godoc
// @Summary Search practice sentences
// @Description Matches Japanese text, reading or English across all challenges
// @Tags overview
// @Produce json
// @Param search query string true "Text to look for"
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /overview/sentences [get]
func (oc *OverviewController) SearchSentences(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	search := strings.TrimSpace(c.Query("search"))
	if search == "" {
		return utils.ValidationError("search is required")
	}
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		return utils.ValidationError("invalid limit")
	}
	limit = min(limit, maxSearchResults)

	// readings are stored normalized, so match those against the normalized query too
	like := "%" + strings.ToLower(search) + "%"
	readingLike := "%" + pronunciation.Normalize(search) + "%"

	var rows []struct {
		ID         uint
		JPText     string
		JPReading  string
		ENText     string
		OrderIndex int
		Title      string
	}
	if err := oc.DB.Model(&models.Sentence{}).
		Select("sentences.id, sentences.jp_text, sentences.jp_reading, sentences.en_text, challenges.order_index, challenges.title").
		Joins("JOIN challenges ON challenges.id = sentences.challenge_id AND challenges.deleted_at IS NULL").
		Where("sentences.jp_text LIKE ? OR sentences.jp_reading LIKE ? OR LOWER(sentences.en_text) LIKE ?", like, readingLike, like).
		Order("challenges.order_index ASC, sentences.id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return utils.InternalError("Failed to search sentences", err)
	}

	stars, err := starsByOrder(oc.DB, userID)
	if err != nil {
		return utils.InternalError("Could not query progress", err)
	}

	result := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		result = append(result, fiber.Map{
			"id":         r.ID,
			"jpText":     r.JPText,
			"jpReading":  r.JPReading,
			"enText":     r.ENText,
			"orderIndex": r.OrderIndex,
			"title":      r.Title,
			"isLocked":   pronunciation.IsLocked(r.OrderIndex, stars),
		})
	}

	return c.JSON(fiber.Map{"sentences": result})
}
