package credits

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/app/models"
)

// Ledger is the transactional core of the credit system. All balance
// mutations go through it; correctness under concurrent callers is
// delegated to the repository's row locking.
type Ledger struct {
	repo Repository
}

// NewLedger creates a ledger from an injected repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// NewLedgerFromDB creates a ledger from a GORM DB handle.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewRepository(db))
}

// GetBalance returns a point-in-time snapshot of the account's pools.
func (l *Ledger) GetBalance(userID uint) (Balance, error) {
	user, err := l.repo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Balance{}, ErrAccountNotFound
		}
		return Balance{}, err
	}
	return Balance{
		TrialRemaining:     user.TrialRemaining,
		TrialUsed:          user.TrialUsed,
		TokenBalance:       user.TokenBalance,
		SubscriptionStatus: user.SubscriptionStatus,
		SubscriptionTier:   user.SubscriptionTier,
	}, nil
}

// DeductTrial consumes one trial credit. Under N concurrent callers with M
// available credits exactly M succeed; a false result means the pool was
// empty and nothing changed.
func (l *Ledger) DeductTrial(userID uint) (DeductResult, error) {
	ok, remaining, err := l.repo.DeductTrial(userID)
	if err != nil {
		return DeductResult{}, wrapAccountErr(err)
	}
	return DeductResult{OK: ok, Remaining: remaining}, nil
}

// RefundTrial moves one unit from used back to remaining. Refunding when
// nothing was used is a no-op success, tolerating duplicate refund calls
// from retried failure handlers.
func (l *Ledger) RefundTrial(userID uint) (DeductResult, error) {
	ok, remaining, err := l.repo.RefundTrial(userID)
	if err != nil {
		return DeductResult{}, wrapAccountErr(err)
	}
	return DeductResult{OK: ok, Remaining: remaining}, nil
}

// DeductTokens consumes purchased credits from the token pool.
func (l *Ledger) DeductTokens(userID uint, amount int) (DeductResult, error) {
	if amount <= 0 {
		return DeductResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidGrant)
	}
	ok, balance, err := l.repo.DeductTokens(userID, amount)
	if err != nil {
		return DeductResult{}, wrapAccountErr(err)
	}
	return DeductResult{OK: ok, Remaining: balance}, nil
}

// Grant credits an account pool and records the ledger entry. Used for the
// signup bonus, share bonuses, purchases and admin grants.
func (l *Ledger) Grant(userID uint, kind string, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidGrant)
	}
	switch kind {
	case models.TxTrialGrantSignup, models.TxTrialGrantShare, models.TxTokenPurchase, models.TxAdminGrant, models.TxTrialRefund:
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidGrant, kind)
	}
	balance, err := l.repo.Grant(userID, kind, amount, description)
	if err != nil {
		return 0, wrapAccountErr(err)
	}
	return balance, nil
}

// GrantSignupBonus awards the one-time free allowance for a new account.
func (l *Ledger) GrantSignupBonus(userID uint) (int, error) {
	return l.Grant(userID, models.TxTrialGrantSignup, models.SignupTrialCredits, "signup bonus")
}

// Transactions returns the append-only audit trail for an account,
// oldest first.
func (l *Ledger) Transactions(userID uint, limit int) ([]models.CreditTransaction, error) {
	txs, err := l.repo.ListTransactions(userID, limit)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	return txs, nil
}

func wrapAccountErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return err
}
