package task

import "time"

const (
	ModeNormal = "Normal"
	ModeBadDay = "Bad Day"

	StatusDone = "done"

	// RecentLimit is how many tasks the history view shows.
	RecentLimit = 40
)

// Task is one completed starter sprint in a user's history.
type Task struct {
	ID           string     `yaml:"id" json:"id"`
	UserID       string     `yaml:"user_id" json:"userId"`
	Text         string     `yaml:"text" json:"text"`
	Starter      string     `yaml:"starter" json:"starter"`
	Steps        []string   `yaml:"steps" json:"steps"`
	SprintLength int        `yaml:"sprint_length" json:"sprintLength"`
	Mode         string     `yaml:"mode" json:"mode"`
	Status       string     `yaml:"status" json:"status"`
	CreatedAt    time.Time  `yaml:"created_at" json:"createdAt"`
	CompletedAt  *time.Time `yaml:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// CompletionTime is when the task counts as done for streaks.
func (t *Task) CompletionTime() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.CreatedAt
}
