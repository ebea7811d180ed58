package credits

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/app/models"
)

// Awarder turns verified share clicks into bonus trial credits, at most
// once per click and at most ShareDailyAwardCap times per link per UTC day.
type Awarder struct {
	repo    Repository
	deduper ClickDeduper
	now     func() time.Time
}

// NewAwarder creates a share credit awarder.
func NewAwarder(repo Repository, deduper ClickDeduper) *Awarder {
	return &Awarder{repo: repo, deduper: deduper, now: time.Now}
}

// NewAwarderFromDB creates an awarder from a GORM DB handle with the
// default redis-backed click de-duplication.
func NewAwarderFromDB(db *gorm.DB) *Awarder {
	return NewAwarder(NewRepository(db), NewRedisClickDeduper(DefaultClickWindow))
}

// CreateShareEvent mints a new trackable share link for a user.
func (a *Awarder) CreateShareEvent(userID uint, platform string) (*models.ShareEvent, error) {
	event := &models.ShareEvent{
		UserID:   userID,
		Platform: strings.ToLower(strings.TrimSpace(platform)),
	}
	if err := a.repo.CreateShareEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// ShareStatus is the read-only tracking state of one share link.
type ShareStatus struct {
	TrackingCode   string     `json:"tracking_code"`
	Platform       string     `json:"platform"`
	ClickCount     int        `json:"click_count"`
	AwardedToday   int        `json:"awarded_today"`
	RemainingToday int        `json:"remaining_today"`
	LastAwardedAt  *time.Time `json:"last_awarded_at"`
}

// Status returns the tracking state of a link, restricted to its owner.
func (a *Awarder) Status(trackingCode string, ownerID uint) (ShareStatus, error) {
	event, err := a.repo.GetShareEventByCode(strings.TrimSpace(trackingCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShareStatus{}, ErrShareLinkNotFound
		}
		return ShareStatus{}, err
	}
	if event.UserID != ownerID {
		return ShareStatus{}, ErrShareLinkNotFound
	}
	awarded := event.AwardsOn(a.now().UTC())
	remaining := models.ShareDailyAwardCap - awarded
	if remaining < 0 {
		remaining = 0
	}
	return ShareStatus{
		TrackingCode:   event.TrackingCode,
		Platform:       event.Platform,
		ClickCount:     event.ClickCount,
		AwardedToday:   awarded,
		RemainingToday: remaining,
		LastAwardedAt:  event.LastAwardedAt,
	}, nil
}

// RecordClick counts one click on a tracking code and grants a bonus
// credit when the click is new and the daily cap allows. Unknown codes
// return ErrShareLinkNotFound; the public boundary soft-fails it.
func (a *Awarder) RecordClick(trackingCode string) (ClickResult, error) {
	code := strings.TrimSpace(trackingCode)
	if code == "" {
		return ClickResult{}, ErrShareLinkNotFound
	}

	// Existence check first so replayed or tampered codes never open a
	// transaction, then the de-dup probe, then one locked transaction for
	// count + cap + grant.
	if _, err := a.repo.GetShareEventByCode(code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClickResult{}, ErrShareLinkNotFound
		}
		return ClickResult{}, err
	}

	now := a.now().UTC()
	isNew := a.deduper.IsNewClick(code, now)

	granted, remaining, err := a.repo.TrackClick(code, isNew, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClickResult{}, ErrShareLinkNotFound
		}
		return ClickResult{}, err
	}

	result := ClickResult{
		Tracked:        true,
		CreditGranted:  granted,
		RemainingToday: remaining,
	}
	switch {
	case granted:
		result.Message = "share bonus credited"
	case !isNew:
		result.Message = "click already tracked"
	default:
		result.Message = "daily share bonus limit reached"
	}
	return result, nil
}
