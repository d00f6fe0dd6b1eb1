package view

import (
	"sort"

	"github.com/taskline-app/taskline/internal/model"
)

// SortForDisplay returns a new slice ordered for rendering: incomplete
// tasks first, then within each partition by ascending due date. Tasks
// without a deadline sort after every dated task in their partition,
// tie-broken by creation time. The input is not modified.
func SortForDisplay(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if *a.DueDate != *b.DueDate {
				return *a.DueDate < *b.DueDate
			}
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}
