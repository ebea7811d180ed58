package credits

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SvenKoller/RenderKeep/app/models"
)

func newTestLedger(user *models.User) (*Ledger, *fakeRepository) {
	repo := newFakeRepository()
	if user != nil {
		repo.addUser(user)
	}
	return NewLedger(repo), repo
}

func TestDeductTrialConsumesOneCredit(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1, TrialRemaining: 3})

	res, err := ledger.DeductTrial(1)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Remaining)

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, 2, balance.TrialRemaining)
	assert.Equal(t, 1, balance.TrialUsed)
}

func TestDeductTrialEmptyPoolFailsWithoutMutation(t *testing.T) {
	ledger, repo := newTestLedger(&models.User{ID: 1, TrialRemaining: 0, TrialUsed: 3})

	res, err := ledger.DeductTrial(1)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, 0, res.Remaining)
	assert.Empty(t, repo.ledger, "failed deduction must not append a ledger entry")
}

func TestDeductTrialUnknownAccount(t *testing.T) {
	ledger, _ := newTestLedger(nil)

	_, err := ledger.DeductTrial(42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRefundTrialRestoresBalanceOnce(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1, TrialRemaining: 2})

	res, err := ledger.DeductTrial(1)
	require.NoError(t, err)
	require.True(t, res.OK)

	first, err := ledger.RefundTrial(1)
	require.NoError(t, err)
	assert.True(t, first.OK)
	assert.Equal(t, 2, first.Remaining)

	// Second refund after one deduction is a no-op success.
	second, err := ledger.RefundTrial(1)
	require.NoError(t, err)
	assert.True(t, second.OK)
	assert.Equal(t, 2, second.Remaining)

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, 2, balance.TrialRemaining)
	assert.Equal(t, 0, balance.TrialUsed)
}

func TestDeductTokens(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1, TokenBalance: 5})

	res, err := ledger.DeductTokens(1, 2)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Remaining)

	res, err = ledger.DeductTokens(1, 4)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, 3, res.Remaining)
}

func TestDeductTokensRejectsNonPositiveAmount(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1, TokenBalance: 5})

	_, err := ledger.DeductTokens(1, 0)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestGrantRoutesToCorrectPool(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1})

	balance, err := ledger.Grant(1, models.TxTrialGrantShare, 1, "share bonus")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	balance, err = ledger.Grant(1, models.TxTokenPurchase, 10, "starter pack")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	b, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, 1, b.TrialRemaining)
	assert.Equal(t, 10, b.TokenBalance)
}

func TestGrantRejectsUnknownKind(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1})

	_, err := ledger.Grant(1, "mystery_kind", 1, "")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestGrantSignupBonus(t *testing.T) {
	ledger, repo := newTestLedger(&models.User{ID: 1})

	balance, err := ledger.GrantSignupBonus(1)
	require.NoError(t, err)
	assert.Equal(t, models.SignupTrialCredits, balance)
	require.Len(t, repo.ledger, 1)
	assert.Equal(t, models.TxTrialGrantSignup, repo.ledger[0].Kind)
}

func TestLedgerReplaysToBalance(t *testing.T) {
	ledger, _ := newTestLedger(&models.User{ID: 1})

	_, err := ledger.GrantSignupBonus(1)
	require.NoError(t, err)
	_, err = ledger.DeductTrial(1)
	require.NoError(t, err)
	_, err = ledger.Grant(1, models.TxTokenPurchase, 20, "pack")
	require.NoError(t, err)
	_, err = ledger.DeductTokens(1, 5)
	require.NoError(t, err)

	txs, err := ledger.Transactions(1, 0)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	trial, tokens := 0, 0
	for _, tx := range txs {
		if models.IsTrialKind(tx.Kind) {
			trial += tx.Amount
			assert.Equal(t, trial, tx.BalanceAfter)
		} else {
			tokens += tx.Amount
			assert.Equal(t, tokens, tx.BalanceAfter)
		}
	}

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, trial, balance.TrialRemaining)
	assert.Equal(t, tokens, balance.TokenBalance)
}

func TestConcurrentDeductionsNeverOversell(t *testing.T) {
	const available = 5
	const callers = 50

	ledger, _ := newTestLedger(&models.User{ID: 1, TrialRemaining: available})

	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ledger.DeductTrial(1)
			if err != nil {
				t.Error(err)
				return
			}
			results <- res.OK
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, available, succeeded, "exactly as many deductions as available credits must succeed")

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.TrialRemaining)
	assert.Equal(t, available, balance.TrialUsed)
}
