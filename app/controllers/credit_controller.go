package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/SvenKoller/RenderKeep/app/models"
	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/usercontext"
)

type purchaseRequest struct {
	Amount int `json:"amount"`
}

// HandlePurchaseTokens credits purchased tokens to the caller's account.
// Payment capture itself happens upstream; this endpoint records the
// resulting entitlement in the ledger.
func HandlePurchaseTokens(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	balance, err := svc.Ledger.Grant(userCtx.UserID, models.TxTokenPurchase, req.Amount, "token purchase")
	if err != nil {
		if errors.Is(err, credits.ErrInvalidGrant) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Amount must be positive"})
		}
		if errors.Is(err, credits.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record purchase"})
	}

	return c.JSON(fiber.Map{"token_balance": balance})
}

type adminGrantRequest struct {
	UserID      uint   `json:"user_id"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// HandleAdminGrant credits an arbitrary account. Admin-only.
func HandleAdminGrant(c *fiber.Ctx) error {
	var req adminGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	balance, err := svc.Ledger.Grant(req.UserID, models.TxAdminGrant, req.Amount, req.Description)
	if err != nil {
		if errors.Is(err, credits.ErrInvalidGrant) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Amount must be positive"})
		}
		if errors.Is(err, credits.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to grant credits"})
	}

	return c.JSON(fiber.Map{"balance": balance})
}
