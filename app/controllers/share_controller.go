package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/env"
	"github.com/SvenKoller/RenderKeep/internal/pkg/usercontext"
)

type createShareRequest struct {
	Platform string `json:"platform"`
}

// HandleCreateShareLink mints a new trackable share link for the caller.
func HandleCreateShareLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req createShareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	event, err := svc.Awarder.CreateShareEvent(userCtx.UserID, req.Platform)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create share link"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tracking_code": event.TrackingCode,
		"share_url":     env.GetEnv("APP_URL", "http://localhost:4000") + "/s/" + event.TrackingCode,
		"platform":      event.Platform,
	})
}

// HandleShareRedirect is the public tracking endpoint behind shared links.
// The tracking code is adversarial input: unknown, stale or tampered codes
// soft-fail into a normal redirect instead of an error response, since
// share links are public and replayed by bots.
func HandleShareRedirect(c *fiber.Ctx) error {
	code := c.Params("code")
	target := env.GetEnv("SHARE_REDIRECT_URL", env.GetEnv("APP_URL", "http://localhost:4000"))

	result, err := svc.Awarder.RecordClick(code)
	if err != nil {
		if errors.Is(err, credits.ErrShareLinkNotFound) {
			return c.Redirect(target+"?share=invalid", fiber.StatusFound)
		}
		// Transient failures also degrade into a plain redirect; the click
		// is lost rather than the visitor inconvenienced.
		log.Printf("share click tracking failed for %q: %v", code, err)
		return c.Redirect(target, fiber.StatusFound)
	}

	if result.CreditGranted {
		return c.Redirect(target+"?share=thanks", fiber.StatusFound)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// HandleGetShareStatus returns tracking state for one of the caller's
// share links.
func HandleGetShareStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	code := c.Params("code")
	result, err := svc.Awarder.Status(code, userCtx.UserID)
	if err != nil {
		if errors.Is(err, credits.ErrShareLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Unknown share link"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load share link"})
	}

	return c.JSON(result)
}
