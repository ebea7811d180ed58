package credits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SvenKoller/RenderKeep/app/models"
)

func newTestAwarder(t *testing.T, isNew bool) (*Awarder, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	repo.addUser(&models.User{ID: 1})
	repo.addShareEvent(&models.ShareEvent{
		ID:                  1,
		TrackingCode:        "abc123",
		UserID:              1,
		CreditsAwardedToday: models.DayCountMap{},
	})
	return NewAwarder(repo, fixedDeduper{isNew: isNew}), repo
}

func TestRecordClickGrantsBonus(t *testing.T) {
	awarder, repo := newTestAwarder(t, true)

	res, err := awarder.RecordClick("abc123")
	require.NoError(t, err)
	assert.True(t, res.Tracked)
	assert.True(t, res.CreditGranted)
	assert.Equal(t, models.ShareDailyAwardCap-1, res.RemainingToday)

	user, err := repo.GetUserByID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, user.TrialRemaining)

	event, err := repo.GetShareEventByCode("abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, event.ClickCount)
	assert.NotNil(t, event.LastAwardedAt)
}

func TestRecordClickDailyCap(t *testing.T) {
	awarder, repo := newTestAwarder(t, true)

	// Two awards already granted today.
	event, err := repo.GetShareEventByCode("abc123")
	require.NoError(t, err)
	now := time.Now().UTC()
	repo.addShareEvent(&models.ShareEvent{
		ID:                  event.ID,
		TrackingCode:        "abc123",
		UserID:              1,
		ClickCount:          2,
		CreditsAwardedToday: models.DayCountMap{now.Format("2006-01-02"): 2},
	})

	// Third new click reaches the cap.
	res, err := awarder.RecordClick("abc123")
	require.NoError(t, err)
	assert.True(t, res.CreditGranted)
	assert.Equal(t, 0, res.RemainingToday)

	// Fourth new click tracks but grants nothing.
	res, err = awarder.RecordClick("abc123")
	require.NoError(t, err)
	assert.True(t, res.Tracked)
	assert.False(t, res.CreditGranted)
	assert.Equal(t, 0, res.RemainingToday)

	event, err = repo.GetShareEventByCode("abc123")
	require.NoError(t, err)
	assert.Equal(t, 4, event.ClickCount)

	user, err := repo.GetUserByID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, user.TrialRemaining, "only one grant past the pre-seeded two")
}

func TestRecordClickDuplicateTracksWithoutGrant(t *testing.T) {
	awarder, repo := newTestAwarder(t, false)

	res, err := awarder.RecordClick("abc123")
	require.NoError(t, err)
	assert.True(t, res.Tracked)
	assert.False(t, res.CreditGranted)
	assert.Equal(t, "click already tracked", res.Message)

	event, err := repo.GetShareEventByCode("abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, event.ClickCount, "duplicate click still increments click_count")
	assert.Empty(t, repo.ledger)
}

func TestRecordClickUnknownCode(t *testing.T) {
	awarder, _ := newTestAwarder(t, true)

	_, err := awarder.RecordClick("nope")
	assert.ErrorIs(t, err, ErrShareLinkNotFound)

	_, err = awarder.RecordClick("   ")
	assert.ErrorIs(t, err, ErrShareLinkNotFound)
}

func TestCreateShareEvent(t *testing.T) {
	repo := newFakeRepository()
	repo.addUser(&models.User{ID: 9})
	awarder := NewAwarder(repo, fixedDeduper{isNew: true})

	event, err := awarder.CreateShareEvent(9, "Pinterest")
	require.NoError(t, err)
	assert.Equal(t, uint(9), event.UserID)
	assert.Equal(t, "pinterest", event.Platform)
	assert.NotEmpty(t, event.TrackingCode)
}
