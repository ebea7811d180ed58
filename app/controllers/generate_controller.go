package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/generation"
	"github.com/SvenKoller/RenderKeep/internal/pkg/usercontext"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// HandleGenerate runs one credit-gated generation for the caller.
func HandleGenerate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Prompt is required"})
	}

	outcome, err := svc.Coordinator.Generate(c.Context(), generation.Request{
		UserID: userCtx.UserID,
		Prompt: req.Prompt,
		Style:  req.Style,
	})
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrNoCredits):
			// Not a server error: surface the purchase prompt.
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":   "no_credits",
				"message": "No credits available. Purchase tokens or subscribe to continue.",
			})
		case errors.Is(err, credits.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
		case errors.Is(err, credits.ErrTransientStore):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "try_again", "message": "Temporary storage contention, please retry"})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "generation_failed", "message": "Generation failed, any consumed credit was refunded"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(outcome)
}
