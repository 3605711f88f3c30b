package workout

import (
	"sort"
	"time"
)

// CurrentStreak counts consecutive UTC calendar days with at least one
// workout. The streak must end today or yesterday relative to now, so a user
// who has not trained yet today keeps yesterday's streak.
func CurrentStreak(completed []time.Time, now time.Time) int {
	if len(completed) == 0 {
		return 0
	}

	days := make(map[time.Time]struct{}, len(completed))
	for _, t := range completed {
		days[utcDay(t)] = struct{}{}
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	today := utcDay(now)
	cursor := today
	if _, ok := days[today]; !ok {
		cursor = today.AddDate(0, 0, -1)
	}

	streak := 0
	for _, d := range sorted {
		if d.After(cursor) {
			// Logs dated in the future do not count.
			continue
		}
		if !d.Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
