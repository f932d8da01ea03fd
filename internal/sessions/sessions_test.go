package sessions

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{TranslateError: true},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TradingSession{}))
	return db
}

func TestAssign(t *testing.T) {
	db := setupDB(t)
	const journalID = 1

	for _, s := range DefaultsFor(journalID) {
		require.NoError(t, db.Create(&s).Error)
	}

	testCases := []struct {
		name     string
		closeAt  time.Time
		expected string // "" means no session
	}{
		{"LondonMidday", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), "London"},
		{"TokyoOnlyWindow", time.Date(2024, 3, 15, 6, 30, 0, 0, time.UTC), "Tokyo"},
		{"SydneyWrapsBeforeMidnight", time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC), "Sydney"},
		// 03:00 sits in both the Sydney and Tokyo windows; Sydney wins
		// as the earliest-created session. This pins the overlap
		// tiebreak.
		{"SydneyWrapsAfterMidnight", time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC), "Sydney"},
		// 07:00 is London's open and still inside Tokyo; same tiebreak.
		{"TokyoLondonOverlap", time.Date(2024, 3, 15, 7, 0, 0, 0, time.UTC), "Tokyo"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session, err := Assign(db, journalID, tc.closeAt)
			require.NoError(t, err)
			if tc.expected == "" {
				assert.Nil(t, session)
			} else {
				require.NotNil(t, session)
				assert.Equal(t, tc.expected, session.Name)
			}
		})
	}
}

func TestAssignNoSessions(t *testing.T) {
	db := setupDB(t)

	session, err := Assign(db, 42, time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestAssignOtherJournalSessionsIgnored(t *testing.T) {
	db := setupDB(t)
	for _, s := range DefaultsFor(7) {
		require.NoError(t, db.Create(&s).Error)
	}

	session, err := Assign(db, 8, time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestLocalTimesNormalizedToUTC(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&models.TradingSession{
		JournalID: 1, Name: "London", OpensAt: 7 * 60, ClosesAt: 16 * 60,
	}).Error)

	// 16:30+02:00 is 14:30 UTC, inside the window.
	loc := time.FixedZone("CEST", 2*60*60)
	session, err := Assign(db, 1, time.Date(2024, 3, 15, 16, 30, 0, 0, loc))
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "London", session.Name)
}
