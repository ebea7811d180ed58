package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/SvenKoller/RenderKeep/app/models"
	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/database"
	"github.com/SvenKoller/RenderKeep/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegisterAccount creates a new account and grants the one-time
// signup trial credits through the ledger, so the balance is replayable
// from transactions alone.
func HandleRegisterAccount(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	db := database.GetDB()
	if err := db.Create(user).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Account already exists"})
	}

	if _, err := svc.Ledger.GrantSignupBonus(user.ID); err != nil {
		log.Printf("signup bonus grant failed for user %d: %v", user.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// HandleGetAccount returns the caller's balances together with the payment
// method that would fund the next generation. Advisory only: a concurrent
// request may invalidate it immediately.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	resolution, err := svc.Resolver.Resolve(userCtx.UserID)
	if err != nil {
		if errors.Is(err, credits.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to resolve payment method"})
	}

	return c.JSON(resolution)
}

// HandleListTransactions returns the caller's append-only credit audit
// trail, oldest first.
func HandleListTransactions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	limit := c.QueryInt("limit", 100)
	txs, err := svc.Ledger.Transactions(userCtx.UserID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load transactions"})
	}

	return c.JSON(fiber.Map{"transactions": txs})
}
