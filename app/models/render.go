package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment types stamped on a render at creation. The type records which
// credit pool funded the generation and drives the retention policy.
const (
	PaymentTypeTrial        = "trial"
	PaymentTypeToken        = "token"
	PaymentTypeSubscription = "subscription"
)

// Render is one generated design artifact. ExpiresAt is computed once at
// creation from the payment type and never recomputed; IsDeleted flips to
// true exactly once, by the expiry sweep or an explicit user delete.
type Render struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID      uint           `gorm:"index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Prompt      string         `gorm:"type:text" json:"prompt"`
	Style       string         `gorm:"type:varchar(100)" json:"style"`
	ObjectKey   string         `gorm:"type:varchar(255)" json:"-"`
	FileSize    int64          `gorm:"type:bigint" json:"file_size"`
	PaymentType string         `gorm:"type:varchar(20);not null" json:"payment_type"`
	ExpiresAt   *time.Time     `gorm:"type:timestamp;default:null;index" json:"expires_at"`
	IsDeleted   bool           `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID if none was set.
func (r *Render) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}

// MarkDeleted soft-deletes the render exactly once.
func (r *Render) MarkDeleted(db *gorm.DB) error {
	if r.IsDeleted {
		return nil
	}
	r.IsDeleted = true
	return db.Model(r).Update("is_deleted", true).Error
}

// FindRenderByUUID finds a render by its UUID.
func FindRenderByUUID(db *gorm.DB, id string) (*Render, error) {
	var render Render
	result := db.Where("uuid = ?", id).First(&render)
	return &render, result.Error
}

// ListExpiredRenders returns non-deleted renders whose expiry has passed.
// Subscription-funded renders have a NULL expiry and never match.
func ListExpiredRenders(db *gorm.DB, now time.Time, limit int) ([]Render, error) {
	var renders []Render
	q := db.Where("is_deleted = ? AND expires_at IS NOT NULL AND expires_at <= ?", false, now)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&renders).Error
	return renders, err
}
