package credits

import (
	"strconv"

	"github.com/SvenKoller/RenderKeep/app/models"
)

// BalanceSource is the read side the resolver decides over.
type BalanceSource interface {
	GetBalance(userID uint) (Balance, error)
}

// Resolver picks, in fixed priority order, which payment method authorizes
// the next generation. It never mutates anything and is safe to poll: the
// actual deduction happens later against the same method, and must fail
// cleanly if a concurrent request drained the pool first.
type Resolver struct {
	source BalanceSource
}

// NewResolver creates a resolver over a balance source.
func NewResolver(source BalanceSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve decides the payment method for an account. Priority is fixed:
// active subscription, then trial credits, then token balance, then none.
func (r *Resolver) Resolve(userID uint) (Resolution, error) {
	balance, err := r.source.GetBalance(userID)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{Balance: balance}
	switch {
	case balance.SubscriptionStatus == models.SubscriptionActive:
		res.Method = MethodSubscription
		res.CanGenerate = true
		res.Details = "unlimited generations with your subscription"
	case balance.TrialRemaining > 0:
		res.Method = MethodTrial
		res.CanGenerate = true
		res.Details = detailsForTrial(balance.TrialRemaining)
	case balance.TokenBalance > 0:
		res.Method = MethodToken
		res.CanGenerate = true
		res.Details = detailsForTokens(balance.TokenBalance)
	default:
		res.Method = MethodNone
		res.CanGenerate = false
		res.Details = "no credits available"
	}
	return res, nil
}

func detailsForTrial(remaining int) string {
	if remaining == 1 {
		return "1 free trial render remaining"
	}
	return strconv.Itoa(remaining) + " free trial renders remaining"
}

func detailsForTokens(balance int) string {
	if balance == 1 {
		return "1 token remaining"
	}
	return strconv.Itoa(balance) + " tokens remaining"
}
