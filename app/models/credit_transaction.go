package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction kinds recorded in the credit ledger.
const (
	TxTrialDeduct      = "trial_deduct"
	TxTrialRefund      = "trial_refund"
	TxTrialGrantSignup = "trial_grant_signup"
	TxTrialGrantShare  = "trial_grant_share"
	TxTokenDeduct      = "token_deduct"
	TxTokenPurchase    = "token_purchase"
	TxAdminGrant       = "admin_grant"
)

// CreditTransaction is an append-only ledger entry. Rows are never updated
// or deleted; corrections are written as new entries with the opposite sign.
// BalanceAfter snapshots the affected pool so the mutable User row can be
// audited by replaying entries in id order.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID" json:"-"`
	Amount       int       `gorm:"not null" json:"amount"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	Kind         string    `gorm:"type:varchar(30);not null;index" json:"kind"`
	Description  string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsTrialKind reports whether the kind touches the trial pool.
func IsTrialKind(kind string) bool {
	switch kind {
	case TxTrialDeduct, TxTrialRefund, TxTrialGrantSignup, TxTrialGrantShare:
		return true
	default:
		return false
	}
}

// ListTransactionsByUser returns the ledger entries for a user, oldest first.
func ListTransactionsByUser(db *gorm.DB, userID uint, limit int) ([]CreditTransaction, error) {
	var txs []CreditTransaction
	q := db.Where("user_id = ?", userID).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txs).Error
	return txs, err
}
