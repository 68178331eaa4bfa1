package controllers

import (
	"errors"
	"math/rand"
	"strings"

	"kotoba/backend/config"
	"kotoba/backend/middleware"
	"kotoba/backend/models"
	"kotoba/backend/utils"
	"kotoba/backend/wanikani"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaniKaniController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Cipher *utils.TokenCipher
}

func NewWaniKaniController(db *gorm.DB, cfg *config.Config, cipher *utils.TokenCipher) *WaniKaniController {
	return &WaniKaniController{DB: db, Cfg: cfg, Cipher: cipher}
}

// Connect godoc
// @Summary Save a WaniKani API token
// @Description Stores the token encrypted; replaces any earlier one
// @Tags wanikani
// @Accept json
// @Produce json
// @Param request body map[string]string true "{\"token\": \"...\"}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /wanikani/connect [post]
func (wc *WaniKaniController) Connect(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var input struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ValidationError("token is required")
	}
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return utils.ValidationError("token is required")
	}

	enc, err := wc.Cipher.Encrypt(token)
	if err != nil {
		return utils.InternalError("Could not encrypt token", err)
	}

	conn := models.WaniKaniConnection{UserID: userID, TokenEnc: enc}
	if err := wc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_enc", "updated_at"}),
	}).Create(&conn).Error; err != nil {
		return utils.InternalError("Could not save token", err)
	}

	return utils.OK(c)
}

// Disconnect removes the stored token.
func (wc *WaniKaniController) Disconnect(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	if err := wc.DB.Unscoped().Where("user_id = ?", userID).Delete(&models.WaniKaniConnection{}).Error; err != nil {
		return utils.InternalError("Could not remove token", err)
	}
	return utils.OK(c)
}

// Test godoc
// @Summary Check the saved WaniKani token
// @Tags wanikani
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /wanikani/test [get]
func (wc *WaniKaniController) Test(c *fiber.Ctx) error {
	client, err := wc.client(c)
	if err != nil {
		return err
	}

	user, err := client.User(c.UserContext())
	if err != nil {
		return upstreamFailure(err)
	}

	return c.JSON(fiber.Map{
		"ok":         true,
		"username":   user.Username,
		"level":      user.Level,
		"profileUrl": user.ProfileURL,
	})
}

// GetKanji godoc
// @Summary Unlocked kanji on the given levels, shuffled
// @Tags wanikani
// @Produce json
// @Param levels query string true "Comma separated levels, e.g. 1,2,3"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /wanikani/kanji [get]
func (wc *WaniKaniController) GetKanji(c *fiber.Ctx) error {
	client, err := wc.client(c)
	if err != nil {
		return err
	}

	levels := wanikani.ParseLevels(c.Query("levels"))
	if len(levels) == 0 {
		return utils.ValidationError("Missing/invalid levels param. Example: levels=1,2,3")
	}

	items, err := client.UnlockedKanji(c.UserContext(), levels)
	if err != nil {
		return upstreamFailure(err)
	}
	if items == nil {
		items = []wanikani.KanjiItem{}
	}
	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	return c.JSON(fiber.Map{"items": items})
}

// GetKanjiCount godoc
// @Summary Number of kanji on the given levels
// @Tags wanikani
// @Produce json
// @Param levels query string false "Comma separated levels"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /wanikani/kanji-count [get]
func (wc *WaniKaniController) GetKanjiCount(c *fiber.Ctx) error {
	client, err := wc.client(c)
	if err != nil {
		return err
	}

	levels := wanikani.ParseLevels(c.Query("levels"))
	if len(levels) == 0 {
		return c.JSON(fiber.Map{"total": 0})
	}

	total, err := client.KanjiCount(c.UserContext(), levels)
	if err != nil {
		return upstreamFailure(err)
	}
	return c.JSON(fiber.Map{"total": total})
}

// GetUserLevel godoc
// @Summary The user's current WaniKani level
// @Tags wanikani
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /wanikani/user-level [get]
func (wc *WaniKaniController) GetUserLevel(c *fiber.Ctx) error {
	client, err := wc.client(c)
	if err != nil {
		return err
	}

	user, err := client.User(c.UserContext())
	if err != nil {
		return upstreamFailure(err)
	}
	level := user.Level
	if level < wanikani.MinLevel {
		level = wanikani.MinLevel
	}
	return c.JSON(fiber.Map{"level": level})
}

// client builds a WaniKani client from the caller's stored token.
func (wc *WaniKaniController) client(c *fiber.Ctx) (*wanikani.Client, error) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return nil, err
	}

	var conn models.WaniKaniConnection
	if err := wc.DB.Where("user_id = ?", userID).First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("No token saved")
		}
		return nil, utils.InternalError("Could not query database", err)
	}

	token, err := wc.Cipher.Decrypt(conn.TokenEnc)
	if err != nil {
		return nil, utils.InternalError("Could not decrypt token", err)
	}
	return wanikani.NewClient(wc.Cfg.WaniKaniBaseURL, token, 0), nil
}

func upstreamFailure(err error) error {
	var se *wanikani.StatusError
	if errors.As(err, &se) {
		return utils.UpstreamError("WaniKani "+se.Op+" error", se.Status, se.Body).Wrap(err)
	}
	return (&utils.AppError{Status: fiber.StatusBadGateway, Message: "WaniKani unreachable"}).Wrap(err)
}
