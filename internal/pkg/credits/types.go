package credits

import "errors"

// PaymentMethod identifies which entitlement authorizes a generation.
type PaymentMethod string

const (
	MethodSubscription PaymentMethod = "subscription"
	MethodTrial        PaymentMethod = "trial"
	MethodToken        PaymentMethod = "token"
	MethodNone         PaymentMethod = "none"
)

// Balance is a point-in-time snapshot of an account's credit pools. It is
// advisory only: a racing deduction may invalidate it immediately after
// return, so callers must never treat it as a reservation.
type Balance struct {
	TrialRemaining     int    `json:"trial_remaining"`
	TrialUsed          int    `json:"trial_used"`
	TokenBalance       int    `json:"token_balance"`
	SubscriptionStatus string `json:"subscription_status"`
	SubscriptionTier   string `json:"subscription_tier,omitempty"`
}

// Resolution is the outcome of the payment hierarchy decision.
type Resolution struct {
	Method      PaymentMethod `json:"method"`
	CanGenerate bool          `json:"can_generate"`
	Details     string        `json:"details"`
	Balance     Balance       `json:"balance"`
}

// DeductResult reports a deduction or refund attempt. OK=false means the
// pool had no credit left; it is a typed result, not an error.
type DeductResult struct {
	OK        bool `json:"ok"`
	Remaining int  `json:"remaining"`
}

// ClickResult reports the outcome of tracking one share click.
type ClickResult struct {
	Tracked        bool   `json:"tracked"`
	CreditGranted  bool   `json:"credit_granted"`
	RemainingToday int    `json:"remaining_today"`
	Message        string `json:"message"`
}

var (
	// ErrAccountNotFound means an operation referenced a non-existent
	// account. Fatal to the request, not retried.
	ErrAccountNotFound = errors.New("credits: account not found")

	// ErrShareLinkNotFound means a tracking code is unknown. Soft-failed
	// at the public boundary, never surfaced as a transport error.
	ErrShareLinkNotFound = errors.New("credits: share link not found")

	// ErrTransientStore wraps lock-wait timeouts, deadlocks and dropped
	// connections. Safe to retry with backoff.
	ErrTransientStore = errors.New("credits: transient store failure")

	// ErrInvalidGrant means a grant had a non-positive amount or an
	// unknown transaction kind.
	ErrInvalidGrant = errors.New("credits: invalid grant")
)
