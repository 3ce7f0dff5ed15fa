package middleware

import (
	"strings"

	"github.com/campusfind/campusfind-backend/internal/config"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/identity"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ModeratorRequired gates moderation routes. A user qualifies either through
// the config-based email allowlist or the DB Role field.
func ModeratorRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	moderatorEmails := parseCSV(cfg.ModeratorEmails)

	return func(c *fiber.Ctx) error {
		userID, err := identity.UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if contains(moderatorEmails, identity.Email(c)) {
			c.Locals("role", models.RoleModerator)
			return c.Next()
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err == nil {
			if user.Role == models.RoleModerator {
				c.Locals("role", models.RoleModerator)
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Moderator access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
