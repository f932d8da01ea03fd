package sessions

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

// Default session windows seeded for a new journal, in minutes since
// midnight UTC. Sydney wraps past midnight.
var defaults = []struct {
	name     string
	opensAt  int
	closesAt int
}{
	{"Sydney", 21 * 60, 6 * 60},
	{"Tokyo", 0, 9 * 60},
	{"London", 7 * 60, 16 * 60},
	{"New York", 12 * 60, 21 * 60},
}

// DefaultsFor builds the standard forex session rows for a journal.
func DefaultsFor(journalID uint) []models.TradingSession {
	out := make([]models.TradingSession, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, models.TradingSession{
			JournalID: journalID,
			Name:      d.name,
			OpensAt:   d.opensAt,
			ClosesAt:  d.closesAt,
		})
	}
	return out
}

// Assign finds the journal session whose window contains t, comparing
// against the UTC wall clock. It returns nil when no window matches;
// the caller decides whether that is worth a warning.
// Overlapping windows resolve to the earliest-created session.
func Assign(db *gorm.DB, journalID uint, t time.Time) (*models.TradingSession, error) {
	var list []models.TradingSession
	if err := db.Where("journal_id = ?", journalID).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions for journal %d: %w", journalID, err)
	}

	minute := t.UTC().Hour()*60 + t.UTC().Minute()
	for i := range list {
		if contains(&list[i], minute) {
			return &list[i], nil
		}
	}
	return nil, nil
}

// contains reports whether the window covers the given minute of day.
// Windows with OpensAt > ClosesAt wrap past midnight.
func contains(s *models.TradingSession, minute int) bool {
	if s.OpensAt <= s.ClosesAt {
		return minute >= s.OpensAt && minute < s.ClosesAt
	}
	return minute >= s.OpensAt || minute < s.ClosesAt
}
