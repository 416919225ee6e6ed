package middleware

import (
	"errors"
	"log"
	"strings"

	"deckforge/internal/models"
	"deckforge/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Key under which the resolved user is stored in the Fiber context.
const currentUserKey = "current_user"

// AuthRequired is a Fiber middleware that checks for a valid bearer token and
// resolves the current user from the database. The token only identifies the
// user; role and active flag come from storage on every request.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		user, err := authService.CurrentUser(parts[1])
		if err != nil {
			log.Printf("Token authentication failed: %v", err)
			if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrInactiveUser) {
				return unauthorized(c, "Invalid or expired token")
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not verify credentials",
			})
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// AdminRequired rejects requests whose resolved user does not currently hold
// the admin role. It must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return unauthorized(c, "Authentication required")
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin privileges required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
	})
}
