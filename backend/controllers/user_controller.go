package controllers

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"kotoba/backend/config"
	"kotoba/backend/middleware"
	"kotoba/backend/models"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

type UpdateUserRequest struct {
	Name        string `json:"name" example:"Aiko"`
	Email       string `json:"email" example:"user@example.com" format:"email"`
	OldPassword string `json:"old_password" example:"oldPassword123" minLength:"8"`
	NewPassword string `json:"new_password" example:"newPassword123" minLength:"8"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundError("User not found")
		}
		return utils.InternalError("Could not query database", err)
	}

	var connections int64
	if err := uc.DB.Model(&models.WaniKaniConnection{}).Where("user_id = ?", userID).Count(&connections).Error; err != nil {
		return utils.InternalError("Could not query database", err)
	}

	var totalStars int64
	if err := uc.DB.Model(&models.ChallengeProgress{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(stars), 0)").
		Scan(&totalStars).Error; err != nil {
		return utils.InternalError("Could not query database", err)
	}

	return c.JSON(fiber.Map{
		"id":                user.ID,
		"email":             user.Email,
		"name":              user.Name,
		"created_at":        user.CreatedAt,
		"wanikaniConnected": connections > 0,
		"totalStars":        totalStars,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Changes name, email or password. A new password needs the old one.
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ValidationError("Cannot parse JSON")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFoundError("User not found")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}

	if email := normalizeEmail(input.Email); email != "" && email != user.Email {
		if _, err := mail.ParseAddress(email); err != nil {
			return utils.ValidationError("Invalid email address")
		}
		var taken int64
		uc.DB.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken)
		if taken > 0 {
			return utils.ConflictError("Email already in use.")
		}
		user.Email = email
	}

	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return utils.ValidationError("Old password is required to set new password")
		}
		if len(input.NewPassword) < minPasswordLength {
			return utils.ValidationError("Password must be at least 8 characters.")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return utils.AuthError("Invalid old password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), passwordCost)
		if err != nil {
			return utils.InternalError("Could not hash password", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ConflictError("Email already in use.")
		}
		return utils.InternalError("Could not update user", err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
	})
}

// GetUserActivity godoc
// @Summary Get recent challenge activity
// @Description Challenges whose stars changed in the last N days, newest first
// @Tags users
// @Produce json
// @Param days query int false "Number of days to look back" default(7)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/activity [get]
func (uc *UserController) GetUserActivity(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days < 1 || days > 365 {
		return utils.ValidationError("days must be between 1 and 365")
	}

	type activity struct {
		OrderIndex int       `json:"orderIndex"`
		Title      string    `json:"title"`
		Stars      int       `json:"stars"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}
	var rows []activity
	if err := uc.DB.Table("challenge_progresses AS p").
		Select("c.order_index, c.title, p.stars, p.updated_at").
		Joins("JOIN challenges AS c ON c.id = p.challenge_id AND c.deleted_at IS NULL").
		Where("p.user_id = ? AND p.deleted_at IS NULL AND p.updated_at >= ?", userID, time.Now().AddDate(0, 0, -days)).
		Order("p.updated_at DESC").
		Scan(&rows).Error; err != nil {
		return utils.InternalError("Failed to fetch activity", err)
	}
	if rows == nil {
		rows = []activity{}
	}

	return c.JSON(fiber.Map{"days": days, "activity": rows})
}
