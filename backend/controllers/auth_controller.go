package controllers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"kotoba/backend/config"
	"kotoba/backend/models"
	"kotoba/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

const (
	minPasswordLength = 8
	passwordCost      = 12
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type credentials struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"hunter2hunter2" minLength:"8"`
	Name     string `json:"name,omitempty" example:"Aiko"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Signup godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentials true "Email and password"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/signup [post]
func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var input credentials
	if err := c.BodyParser(&input); err != nil {
		return utils.ValidationError("Cannot parse JSON")
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		return utils.ValidationError("Email required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return utils.ValidationError("Invalid email address")
	}
	if len(input.Password) < minPasswordLength {
		return utils.ValidationError("Password must be at least 8 characters.")
	}

	var count int64
	if err := ac.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return utils.InternalError("Could not query database", err)
	}
	if count > 0 {
		return utils.ConflictError("Email already in use.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordCost)
	if err != nil {
		return utils.InternalError("Could not hash password", err)
	}

	user := models.User{Email: email, Name: strings.TrimSpace(input.Name), PasswordHash: string(hash)}
	if err := ac.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ConflictError("Email already in use.")
		}
		return utils.InternalError("Could not create user", err)
	}

	return utils.Created(c, fiber.Map{
		"ok": true,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user, set the session cookie and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentials true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input credentials
	if err := c.BodyParser(&input); err != nil {
		return utils.ValidationError("Cannot parse JSON")
	}

	var user models.User
	if err := ac.DB.Where("email = ?", normalizeEmail(input.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.AuthError("Invalid credentials")
		}
		return utils.InternalError("Could not query database", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.AuthError("Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalError("Could not generate token", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(utils.TokenTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Logout clears the session cookie. Bearer tokens simply expire.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.ClearCookie(utils.SessionCookie)
	return utils.OK(c)
}
