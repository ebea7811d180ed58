package middleware

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/app/models"
	"github.com/SvenKoller/RenderKeep/internal/pkg/database"
	"github.com/SvenKoller/RenderKeep/internal/pkg/usercontext"
)

// AccountMiddleware resolves the account id forwarded by the identity
// gateway and loads the matching user into the request context. Ledger
// operations run only for requests carrying a resolved, active account.
func AccountMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID := extractAccountID(c)
		if accountID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing account identity"})
		}

		db := database.GetDB()
		if db == nil {
			log.Print("account middleware: database unavailable")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
		}

		user, err := models.FindUserByID(db, accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Unknown account"})
			}
			log.Printf("account lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Account verification failed"})
		}

		if user.Status != models.STATUS_ACTIVE {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Account inactive"})
		}

		userCtx := usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Name,
			IsLoggedIn: true,
			IsAdmin:    user.Role == models.ROLE_ADMIN,
		}
		c.Locals(usercontext.KeyUserContext, userCtx)
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

		return c.Next()
	}
}

// RequireAdmin gates admin-only routes. Must run after AccountMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !usercontext.IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access required"})
		}
		return c.Next()
	}
}

func extractAccountID(c *fiber.Ctx) uint {
	raw := strings.TrimSpace(c.Get("X-Account-ID"))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
