package credits

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SvenKoller/RenderKeep/app/models"
)

// Repository provides the transactional DB operations behind the ledger.
// Every mutating method runs as one transaction holding an exclusive row
// lock on the account (and share event) being changed, for the duration of
// the check-then-write only. No method spans two accounts.
type Repository interface {
	GetUserByID(userID uint) (*models.User, error)
	DeductTrial(userID uint) (bool, int, error)
	RefundTrial(userID uint) (bool, int, error)
	DeductTokens(userID uint, amount int) (bool, int, error)
	Grant(userID uint, kind string, amount int, description string) (int, error)
	ListTransactions(userID uint, limit int) ([]models.CreditTransaction, error)

	CreateShareEvent(event *models.ShareEvent) error
	GetShareEventByCode(code string) (*models.ShareEvent, error)
	TrackClick(code string, isNewClick bool, now time.Time) (granted bool, remainingToday int, err error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a credit repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return &user, nil
}

// lockUser loads the account row under an exclusive lock. Must be called
// inside a transaction; the lock is released on commit or rollback.
func lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// appendEntry writes one immutable ledger row inside the caller's transaction.
func appendEntry(tx *gorm.DB, userID uint, amount, balanceAfter int, kind, description string) error {
	entry := models.CreditTransaction{
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Kind:         kind,
		Description:  description,
	}
	return tx.Create(&entry).Error
}

func (r *gormRepository) DeductTrial(userID uint) (bool, int, error) {
	ok := false
	remaining := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		remaining = user.TrialRemaining
		if user.TrialRemaining <= 0 {
			return nil
		}
		user.TrialRemaining--
		user.TrialUsed++
		if err := tx.Model(user).Updates(map[string]interface{}{
			"trial_remaining": user.TrialRemaining,
			"trial_used":      user.TrialUsed,
		}).Error; err != nil {
			return err
		}
		if err := appendEntry(tx, userID, -1, user.TrialRemaining, models.TxTrialDeduct, "generation"); err != nil {
			return err
		}
		ok = true
		remaining = user.TrialRemaining
		return nil
	})
	if err != nil {
		return false, 0, mapStoreError(err)
	}
	return ok, remaining, nil
}

func (r *gormRepository) RefundTrial(userID uint) (bool, int, error) {
	remaining := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		// Refunding with nothing used is a no-op success so retried
		// failure handlers stay idempotent.
		if user.TrialUsed <= 0 {
			remaining = user.TrialRemaining
			return nil
		}
		user.TrialRemaining++
		user.TrialUsed--
		if err := tx.Model(user).Updates(map[string]interface{}{
			"trial_remaining": user.TrialRemaining,
			"trial_used":      user.TrialUsed,
		}).Error; err != nil {
			return err
		}
		if err := appendEntry(tx, userID, 1, user.TrialRemaining, models.TxTrialRefund, "generation failed"); err != nil {
			return err
		}
		remaining = user.TrialRemaining
		return nil
	})
	if err != nil {
		return false, 0, mapStoreError(err)
	}
	return true, remaining, nil
}

func (r *gormRepository) DeductTokens(userID uint, amount int) (bool, int, error) {
	ok := false
	balance := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		balance = user.TokenBalance
		if user.TokenBalance < amount {
			return nil
		}
		user.TokenBalance -= amount
		if err := tx.Model(user).Update("token_balance", user.TokenBalance).Error; err != nil {
			return err
		}
		if err := appendEntry(tx, userID, -amount, user.TokenBalance, models.TxTokenDeduct, "generation"); err != nil {
			return err
		}
		ok = true
		balance = user.TokenBalance
		return nil
	})
	if err != nil {
		return false, 0, mapStoreError(err)
	}
	return ok, balance, nil
}

func (r *gormRepository) Grant(userID uint, kind string, amount int, description string) (int, error) {
	balance := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = grantLocked(tx, userID, kind, amount, description)
		return err
	})
	if err != nil {
		return 0, mapStoreError(err)
	}
	return balance, nil
}

// grantLocked applies a grant inside an existing transaction, locking the
// account row first. Trial kinds credit the trial pool, token kinds the
// token pool.
func grantLocked(tx *gorm.DB, userID uint, kind string, amount int, description string) (int, error) {
	user, err := lockUser(tx, userID)
	if err != nil {
		return 0, err
	}
	var balance int
	if models.IsTrialKind(kind) {
		user.TrialRemaining += amount
		balance = user.TrialRemaining
		if err := tx.Model(user).Update("trial_remaining", user.TrialRemaining).Error; err != nil {
			return 0, err
		}
	} else {
		user.TokenBalance += amount
		balance = user.TokenBalance
		if err := tx.Model(user).Update("token_balance", user.TokenBalance).Error; err != nil {
			return 0, err
		}
	}
	if err := appendEntry(tx, userID, amount, balance, kind, description); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *gormRepository) ListTransactions(userID uint, limit int) ([]models.CreditTransaction, error) {
	txs, err := models.ListTransactionsByUser(r.db, userID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return txs, nil
}

func (r *gormRepository) CreateShareEvent(event *models.ShareEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (r *gormRepository) GetShareEventByCode(code string) (*models.ShareEvent, error) {
	event, err := models.FindShareEventByCode(r.db, code)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return event, nil
}

// TrackClick counts one click on a share link and, when the click is new
// and the daily cap allows, grants the owner one bonus trial credit. Click
// count, award counter and the ledger entry commit in the same transaction
// so the cap holds across process restarts.
func (r *gormRepository) TrackClick(code string, isNewClick bool, now time.Time) (bool, int, error) {
	granted := false
	remainingToday := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var event models.ShareEvent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tracking_code = ?", code).First(&event).Error
		if err != nil {
			return err
		}

		event.ClickCount++
		awardedToday := event.AwardsOn(now)
		remainingToday = models.ShareDailyAwardCap - awardedToday

		if isNewClick && awardedToday < models.ShareDailyAwardCap {
			if _, err := grantLocked(tx, event.UserID, models.TxTrialGrantShare, 1, "share bonus"); err != nil {
				return err
			}
			event.RecordAward(now)
			granted = true
			remainingToday = models.ShareDailyAwardCap - event.AwardsOn(now)
		}

		return tx.Model(&event).Updates(map[string]interface{}{
			"click_count":           event.ClickCount,
			"credits_awarded_today": event.CreditsAwardedToday,
			"last_awarded_at":       event.LastAwardedAt,
		}).Error
	})
	if err != nil {
		return false, 0, mapStoreError(err)
	}
	if remainingToday < 0 {
		remainingToday = 0
	}
	return granted, remainingToday, nil
}

// MySQL error numbers treated as transient.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// mapStoreError converts driver-level failures into the ledger error
// taxonomy. Record-not-found maps to ErrAccountNotFound at the account
// boundary; callers looking up share events translate it themselves.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return fmt.Errorf("%w: %v", ErrTransientStore, err)
		}
	}
	return err
}
