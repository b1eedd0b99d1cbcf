package aggregate

import (
	"strings"
	"time"

	"github.com/existflow/protask/internal/model"
)

// Criteria selects tasks for the list view. Zero values mean "any";
// all set fields must match.
type Criteria struct {
	Status   model.Status   `json:"status,omitempty"`
	Priority model.Priority `json:"priority,omitempty"`
	Delayed  bool           `json:"delayed,omitempty"`
	Search   string         `json:"search,omitempty"`
	From     *time.Time     `json:"from,omitempty"`
	To       *time.Time     `json:"to,omitempty"`
}

// IsEmpty reports whether no filter is active
func (c Criteria) IsEmpty() bool {
	return c.Status == "" && c.Priority == "" && !c.Delayed &&
		c.Search == "" && c.From == nil && c.To == nil
}

// Matches reports whether a single task satisfies every active filter
func (c Criteria) Matches(t *model.Task, now time.Time) bool {
	if c.Status != "" && t.Status != c.Status {
		return false
	}
	if c.Priority != "" && t.Priority != c.Priority {
		return false
	}
	if c.Delayed && !t.IsDelayed(now) {
		return false
	}
	if q := strings.ToLower(c.Search); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.ProjectID), q) {
			return false
		}
	}
	if c.From != nil || c.To != nil {
		if t.StartDate == nil {
			return false
		}
		if c.From != nil && t.StartDate.Before(*c.From) {
			return false
		}
		if c.To != nil && t.StartDate.After(*c.To) {
			return false
		}
	}
	return true
}

// FilterTasks returns the tasks matching c in their original order.
// The input slice is never modified.
func FilterTasks(tasks []model.Task, c Criteria, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		if c.Matches(&tasks[i], now) {
			out = append(out, tasks[i])
		}
	}
	return out
}
