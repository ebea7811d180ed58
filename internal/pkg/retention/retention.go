// Package retention maps the credit type that funded a render to how long
// its artifact is stored. Pure functions only: the expiry sweep and the
// generation flow provide the I/O around them.
package retention

import (
	"fmt"
	"time"

	"github.com/SvenKoller/RenderKeep/app/models"
)

// TokenRetention is how long token-funded renders are kept.
const TokenRetention = 7 * 24 * time.Hour

// ComputeExpiry returns when a render funded by the given payment type
// expires. Subscription renders never expire (nil). Trial renders expire
// immediately: they exist only for the duration of the response. Unknown
// payment types fall back to the token policy instead of erroring.
func ComputeExpiry(paymentType string, createdAt time.Time) *time.Time {
	switch paymentType {
	case models.PaymentTypeSubscription:
		return nil
	case models.PaymentTypeTrial:
		t := createdAt
		return &t
	default:
		t := createdAt.Add(TokenRetention)
		return &t
	}
}

// Description is the human-readable retention summary for a render.
type Description struct {
	Message       string `json:"message"`
	DaysRemaining *int   `json:"days_remaining"`
}

// DescribeRetention renders the retention policy for display. Days
// remaining are whole days between now and expiry, truncated toward zero,
// in UTC.
func DescribeRetention(paymentType string, expiresAt *time.Time, now time.Time) Description {
	switch paymentType {
	case models.PaymentTypeSubscription:
		return Description{Message: "kept permanently"}
	case models.PaymentTypeTrial:
		zero := 0
		return Description{Message: "not retained", DaysRemaining: &zero}
	}

	days := 0
	if expiresAt != nil {
		days = int(expiresAt.UTC().Sub(now.UTC()) / (24 * time.Hour))
		if days < 0 {
			days = 0
		}
	}
	d := days
	switch {
	case days > 1:
		return Description{Message: fmt.Sprintf("kept for %d more days", days), DaysRemaining: &d}
	case days == 1:
		return Description{Message: "expires tomorrow", DaysRemaining: &d}
	default:
		return Description{Message: "expires today", DaysRemaining: &d}
	}
}

// IsExpired reports whether a render should be swept. Already-deleted
// renders are never reported again, and a nil expiry never expires.
// Deterministic and side-effect free, so the sweep can call it repeatedly.
func IsExpired(expiresAt *time.Time, isDeleted bool, now time.Time) bool {
	if isDeleted || expiresAt == nil {
		return false
	}
	return !expiresAt.After(now)
}
