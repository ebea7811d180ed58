package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/internal/pkg/shortener"
)

// ShareDailyAwardCap limits how many bonus credits a single share link can
// earn per UTC calendar day, regardless of click volume.
const ShareDailyAwardCap = 3

// TrackingCodeLength is the size of generated share tracking codes.
const TrackingCodeLength = 10

// DayCountMap stores per-day award counts as a JSON column keyed by
// "2006-01-02" (UTC). The map is pruned to the current day on write, so it
// never grows beyond a handful of entries.
type DayCountMap map[string]int

// Value implements the driver.Valuer interface
func (m DayCountMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (m *DayCountMap) Scan(value interface{}) error {
	if value == nil {
		*m = DayCountMap{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	if len(bytes) == 0 {
		*m = DayCountMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// ShareEvent is one trackable share link a user distributed. Clicks on the
// link can earn the owner bonus trial credits, capped per day.
type ShareEvent struct {
	ID                  uint        `gorm:"primaryKey" json:"id"`
	TrackingCode        string      `gorm:"type:varchar(32) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"tracking_code"`
	UserID              uint        `gorm:"not null;index" json:"user_id"`
	User                User        `gorm:"foreignKey:UserID" json:"-"`
	Platform            string      `gorm:"type:varchar(50)" json:"platform"`
	ClickCount          int         `gorm:"not null;default:0" json:"click_count"`
	CreditsAwardedToday DayCountMap `gorm:"type:json" json:"credits_awarded_today"`
	LastAwardedAt       *time.Time  `gorm:"type:timestamp;default:null" json:"last_awarded_at"`
	CreatedAt           time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate mints a tracking code if none was set.
func (s *ShareEvent) BeforeCreate(tx *gorm.DB) error {
	if s.TrackingCode == "" {
		code, err := shortener.GenerateSecureSlug(TrackingCodeLength)
		if err != nil {
			return err
		}
		s.TrackingCode = code
	}
	if s.CreditsAwardedToday == nil {
		s.CreditsAwardedToday = DayCountMap{}
	}
	return nil
}

// AwardsOn returns how many credits this link already earned on the given
// UTC day.
func (s *ShareEvent) AwardsOn(day time.Time) int {
	if s.CreditsAwardedToday == nil {
		return 0
	}
	return s.CreditsAwardedToday[day.UTC().Format("2006-01-02")]
}

// RecordAward bumps the award counter for the given UTC day and prunes
// stale days so the column stays small.
func (s *ShareEvent) RecordAward(day time.Time) {
	key := day.UTC().Format("2006-01-02")
	count := 0
	if s.CreditsAwardedToday != nil {
		count = s.CreditsAwardedToday[key]
	}
	s.CreditsAwardedToday = DayCountMap{key: count + 1}
	now := day.UTC()
	s.LastAwardedAt = &now
}

// FindShareEventByCode finds a share event by its tracking code.
func FindShareEventByCode(db *gorm.DB, code string) (*ShareEvent, error) {
	var event ShareEvent
	result := db.Where("tracking_code = ?", code).First(&event)
	return &event, result.Error
}
