package credits

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/app/models"
)

// fakeRepository implements Repository in memory with a single mutex
// standing in for the store's row locks. Check-then-write sections run
// under the lock, matching the contract of the GORM implementation.
type fakeRepository struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	events map[string]*models.ShareEvent
	ledger []models.CreditTransaction
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:  make(map[uint]*models.User),
		events: make(map[string]*models.ShareEvent),
	}
}

func (f *fakeRepository) addUser(user *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

func (f *fakeRepository) addShareEvent(event *models.ShareEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.TrackingCode] = event
}

func (f *fakeRepository) append(userID uint, amount, after int, kind, desc string) {
	f.ledger = append(f.ledger, models.CreditTransaction{
		ID:           uint(len(f.ledger) + 1),
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: after,
		Kind:         kind,
		Description:  desc,
		CreatedAt:    time.Now(),
	})
}

func (f *fakeRepository) GetUserByID(userID uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeRepository) DeductTrial(userID uint) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return false, 0, gorm.ErrRecordNotFound
	}
	if user.TrialRemaining <= 0 {
		return false, user.TrialRemaining, nil
	}
	user.TrialRemaining--
	user.TrialUsed++
	f.append(userID, -1, user.TrialRemaining, models.TxTrialDeduct, "generation")
	return true, user.TrialRemaining, nil
}

func (f *fakeRepository) RefundTrial(userID uint) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return false, 0, gorm.ErrRecordNotFound
	}
	if user.TrialUsed <= 0 {
		return true, user.TrialRemaining, nil
	}
	user.TrialRemaining++
	user.TrialUsed--
	f.append(userID, 1, user.TrialRemaining, models.TxTrialRefund, "generation failed")
	return true, user.TrialRemaining, nil
}

func (f *fakeRepository) DeductTokens(userID uint, amount int) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return false, 0, gorm.ErrRecordNotFound
	}
	if user.TokenBalance < amount {
		return false, user.TokenBalance, nil
	}
	user.TokenBalance -= amount
	f.append(userID, -amount, user.TokenBalance, models.TxTokenDeduct, "generation")
	return true, user.TokenBalance, nil
}

func (f *fakeRepository) Grant(userID uint, kind string, amount int, description string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grantLocked(userID, kind, amount, description)
}

func (f *fakeRepository) grantLocked(userID uint, kind string, amount int, description string) (int, error) {
	user, ok := f.users[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	var balance int
	if models.IsTrialKind(kind) {
		user.TrialRemaining += amount
		balance = user.TrialRemaining
	} else {
		user.TokenBalance += amount
		balance = user.TokenBalance
	}
	f.append(userID, amount, balance, kind, description)
	return balance, nil
}

func (f *fakeRepository) ListTransactions(userID uint, limit int) ([]models.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CreditTransaction
	for _, tx := range f.ledger {
		if tx.UserID == userID {
			out = append(out, tx)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateShareEvent(event *models.ShareEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.TrackingCode == "" {
		event.TrackingCode = "testcode"
	}
	if event.CreditsAwardedToday == nil {
		event.CreditsAwardedToday = models.DayCountMap{}
	}
	f.events[event.TrackingCode] = event
	return nil
}

func (f *fakeRepository) GetShareEventByCode(code string) (*models.ShareEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *fakeRepository) TrackClick(code string, isNewClick bool, now time.Time) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[code]
	if !ok {
		return false, 0, gorm.ErrRecordNotFound
	}
	event.ClickCount++
	awarded := event.AwardsOn(now)
	remaining := models.ShareDailyAwardCap - awarded
	granted := false
	if isNewClick && awarded < models.ShareDailyAwardCap {
		if _, err := f.grantLocked(event.UserID, models.TxTrialGrantShare, 1, "share bonus"); err != nil {
			return false, 0, err
		}
		event.RecordAward(now)
		granted = true
		remaining = models.ShareDailyAwardCap - event.AwardsOn(now)
	}
	if remaining < 0 {
		remaining = 0
	}
	return granted, remaining, nil
}

// fixedDeduper returns a canned answer for every click.
type fixedDeduper struct {
	isNew bool
}

func (d fixedDeduper) IsNewClick(string, time.Time) bool { return d.isNew }
