package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SvenKoller/RenderKeep/app/models"
)

func TestResolvePriorityOrder(t *testing.T) {
	tests := []struct {
		name        string
		user        models.User
		wantMethod  PaymentMethod
		canGenerate bool
	}{
		{
			name:        "active subscription wins over everything",
			user:        models.User{ID: 1, SubscriptionStatus: models.SubscriptionActive, TrialRemaining: 0, TokenBalance: 0},
			wantMethod:  MethodSubscription,
			canGenerate: true,
		},
		{
			name:        "subscription outranks trial and tokens",
			user:        models.User{ID: 1, SubscriptionStatus: models.SubscriptionActive, TrialRemaining: 3, TokenBalance: 10},
			wantMethod:  MethodSubscription,
			canGenerate: true,
		},
		{
			name:        "trial before tokens",
			user:        models.User{ID: 1, SubscriptionStatus: models.SubscriptionNone, TrialRemaining: 2, TokenBalance: 10},
			wantMethod:  MethodTrial,
			canGenerate: true,
		},
		{
			name:        "tokens when trial drained",
			user:        models.User{ID: 1, SubscriptionStatus: models.SubscriptionNone, TrialRemaining: 0, TokenBalance: 1},
			wantMethod:  MethodToken,
			canGenerate: true,
		},
		{
			name:        "past_due subscription does not entitle",
			user:        models.User{ID: 1, SubscriptionStatus: models.SubscriptionPastDue, TrialRemaining: 0, TokenBalance: 0},
			wantMethod:  MethodNone,
			canGenerate: false,
		},
		{
			name:        "nothing left",
			user:        models.User{ID: 1, SubscriptionStatus: models.SubscriptionNone, TrialRemaining: 0, TokenBalance: 0},
			wantMethod:  MethodNone,
			canGenerate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			ledger, _ := newTestLedger(&user)
			resolver := NewResolver(ledger)

			res, err := resolver.Resolve(1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, res.Method)
			assert.Equal(t, tt.canGenerate, res.CanGenerate)
			assert.NotEmpty(t, res.Details)
		})
	}
}

func TestResolveIsSideEffectFree(t *testing.T) {
	ledger, repo := newTestLedger(&models.User{ID: 1, TrialRemaining: 1})
	resolver := NewResolver(ledger)

	for i := 0; i < 3; i++ {
		res, err := resolver.Resolve(1)
		require.NoError(t, err)
		assert.Equal(t, MethodTrial, res.Method)
	}
	assert.Empty(t, repo.ledger, "resolution must never write")
}

func TestResolveUnknownAccount(t *testing.T) {
	ledger, _ := newTestLedger(nil)
	resolver := NewResolver(ledger)

	_, err := resolver.Resolve(7)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
