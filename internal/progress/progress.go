// Package progress derives streaks and badges from a user's task history.
package progress

import (
	"sort"
	"time"

	"github.com/twominute/twominute/internal/task"
)

const (
	BadgeFirstStep = "first_step"
	BadgeOnFire    = "on_fire"
	BadgeDeepWork  = "deep_work"
	BadgeSurvivor  = "survivor"

	onFireStreak    = 3
	deepWorkMinutes = 25
)

type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type Summary struct {
	Streak    int     `json:"streak"`
	Completed int     `json:"completed"`
	Badges    []Badge `json:"badges"`
}

// Streak counts consecutive completion days, starting from the most recent
// one. Days are UTC calendar days; several tasks on one day count once.
func Streak(tasks []*task.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(tasks))
	for _, t := range tasks {
		at := t.CompletionTime().UTC()
		days = append(days, time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		gap := days[i-1].Sub(days[i])
		if gap == 24*time.Hour {
			streak++
		} else if gap > 24*time.Hour {
			break
		}
	}
	return streak
}

// Summarize computes the progress view for one user's history.
func Summarize(tasks []*task.Task) Summary {
	streak := Streak(tasks)
	var deepWork, survivor bool
	for _, t := range tasks {
		if t.SprintLength >= deepWorkMinutes {
			deepWork = true
		}
		if t.Mode == task.ModeBadDay {
			survivor = true
		}
	}
	return Summary{
		Streak:    streak,
		Completed: len(tasks),
		Badges: []Badge{
			{ID: BadgeFirstStep, Title: "First Step", Description: "Complete your first starter", Unlocked: len(tasks) >= 1},
			{ID: BadgeOnFire, Title: "On Fire", Description: "Maintain a 3-day streak", Unlocked: streak >= onFireStreak},
			{ID: BadgeDeepWork, Title: "Deep Work", Description: "Finish a 25m sprint", Unlocked: deepWork},
			{ID: BadgeSurvivor, Title: "Survivor", Description: "Complete a Bad Day task", Unlocked: survivor},
		},
	}
}
