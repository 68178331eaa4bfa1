package middleware

import (
	"errors"

	"kotoba/backend/config"
	"kotoba/backend/models"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const userIDKey = "userID"

// AuthMiddleware accepts a JWT from the Authorization header or the session
// cookie and requires that it names an existing user.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return err
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).Select("id").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.AuthError("Not authenticated")
			}
			return utils.InternalError("Could not query database", err)
		}

		c.Locals(userIDKey, user.ID)
		return c.Next()
	}
}

// CurrentUserID returns the user authenticated by AuthMiddleware.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(userIDKey).(uint)
	if !ok || id == 0 {
		return 0, utils.AuthError("Not authenticated")
	}
	return id, nil
}
