package achievements

import (
	"time"

	"github.com/example/learnstate/pkg/models"
)

// DateLayout is the format of Stats.LastStudyDate
const DateLayout = "2006-01-02"

// UpdateStreak records a study event on today's UTC date.
// A gap of one day extends the streak, the same day leaves it alone,
// anything longer (or no previous date) starts over at 1.
func UpdateStreak(stats *models.Stats, today time.Time) {
	todayStr := today.UTC().Format(DateLayout)
	day, _ := time.Parse(DateLayout, todayStr)

	last, err := time.Parse(DateLayout, stats.LastStudyDate)
	if stats.LastStudyDate == "" || err != nil {
		stats.CurrentStreak = 1
	} else {
		gap := int(day.Sub(last).Hours() / 24)
		switch {
		case gap == 1:
			stats.CurrentStreak++
		case gap == 0:
			if stats.CurrentStreak < 1 {
				stats.CurrentStreak = 1
			}
		case gap < 0:
			// clock moved backwards; keep the later date
			return
		default:
			stats.CurrentStreak = 1
		}
	}

	stats.LastStudyDate = todayStr
	if stats.CurrentStreak > stats.BestStreak {
		stats.BestStreak = stats.CurrentStreak
	}
}
