// Package query provides read-only filtering and sorting over cache
// snapshots. It never mutates its inputs.
package query

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/harrisonrobin/tasksheet/pkg/model"
)

// Key selects the attribute Sort orders by.
type Key string

const (
	KeyDeadline Key = "deadline"
	KeyPriority Key = "priority"
	KeyCategory Key = "category"
	KeyProject  Key = "project"
	KeyStatus   Key = "status"
	KeyName     Key = "name"
)

// Order is the sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

// priorityRank orders priorities by severity: High sorts first, the empty
// priority last.
var priorityRank = map[model.Priority]int{
	model.PriorityHigh:   1,
	model.PriorityMedium: 2,
	model.PriorityLow:    3,
	model.PriorityNone:   4,
}

// Filter returns a restartable sequence of the tasks satisfying pred. The
// sequence can be ranged over any number of times; the backing slice is
// never modified.
func Filter(tasks []model.Task, pred func(model.Task) bool) iter.Seq[model.Task] {
	return func(yield func(model.Task) bool) {
		for _, t := range tasks {
			if pred(t) && !yield(t) {
				return
			}
		}
	}
}

// ByStatus matches tasks with the given status.
func ByStatus(s model.Status) func(model.Task) bool {
	return func(t model.Task) bool { return t.Status == s }
}

// ByPriority matches tasks with the given priority.
func ByPriority(p model.Priority) func(model.Task) bool {
	return func(t model.Task) bool { return t.Priority == p }
}

// ByCategory matches tasks referencing the given category.
func ByCategory(id int) func(model.Task) bool {
	return func(t model.Task) bool { return t.CategoryID == id }
}

// ByProject matches tasks referencing the given project.
func ByProject(id int) func(model.Task) bool {
	return func(t model.Task) bool { return t.ProjectID == id }
}

// NotCompleted matches tasks that still need work.
func NotCompleted() func(model.Task) bool {
	return func(t model.Task) bool { return t.Status != model.StatusCompleted }
}

// Overdue returns the incomplete tasks whose deadline has passed as of now,
// sorted by deadline then id.
func Overdue(tasks []model.Task, now time.Time) []model.Task {
	today := model.DateOf(now)
	out := make([]model.Task, 0)
	for t := range Filter(tasks, NotCompleted()) {
		if !t.Deadline.IsZero() && t.Deadline.Before(today.Time) {
			out = append(out, t)
		}
	}
	return Sort(out, KeyDeadline, Ascending)
}

// Sort returns a sorted copy of tasks. The sort is stable and ties always
// break by ascending task id, so repeated calls over equal input yield
// identical output.
func Sort(tasks []model.Task, key Key, order Order) []model.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b model.Task) int {
		c := compare(a, b, key)
		if order == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out
}

func compare(a, b model.Task, key Key) int {
	switch key {
	case KeyDeadline:
		return a.Deadline.Compare(b.Deadline.Time)
	case KeyPriority:
		return rank(a.Priority) - rank(b.Priority)
	case KeyCategory:
		return a.CategoryID - b.CategoryID
	case KeyProject:
		return a.ProjectID - b.ProjectID
	case KeyStatus:
		return strings.Compare(strings.ToLower(string(a.Status)), strings.ToLower(string(b.Status)))
	case KeyName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	return 0
}

func rank(p model.Priority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	// Unknown priorities sort after everything the enum defines.
	return len(priorityRank) + 1
}
