// Package view derives display state from the task document. Every
// function is pure in (tasks, now) so a render tick can recompute all
// rows from a single clock read.
package view

import (
	"fmt"
	"time"

	"github.com/taskline-app/taskline/internal/model"
)

// Tier is the coarse urgency classification driving countdown styling.
type Tier int

const (
	TierNone Tier = iota
	TierPlenty
	TierSoon
	TierUrgent
)

func (t Tier) String() string {
	switch t {
	case TierPlenty:
		return "plenty"
	case TierSoon:
		return "soon"
	case TierUrgent:
		return "urgent"
	default:
		return "none"
	}
}

// Countdown is the rendered deadline state of one row.
type Countdown struct {
	Label string
	Tier  Tier
}

// Remaining computes the countdown for a due date at the given instant.
// The label uses the largest applicable unit: days when at least a full
// day remains, then hours, minutes, seconds. Tiers: overdue and
// anything under an hour are urgent; under two days is soon; the rest
// is plenty.
func Remaining(dueMillis int64, now time.Time) Countdown {
	left := time.UnixMilli(dueMillis).Sub(now)
	if left <= 0 {
		return Countdown{Label: "Overdue", Tier: TierUrgent}
	}

	seconds := int64(left / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		tier := TierPlenty
		if days == 1 {
			tier = TierSoon
		}
		return Countdown{Label: plural(days, "day") + " remaining", Tier: tier}
	case hours > 0:
		return Countdown{Label: plural(hours, "hour") + " remaining", Tier: TierSoon}
	case minutes > 0:
		return Countdown{Label: plural(minutes, "minute") + " remaining", Tier: TierUrgent}
	default:
		return Countdown{Label: plural(seconds, "second") + " remaining", Tier: TierUrgent}
	}
}

// TaskCountdown derives the countdown for a task, or none for tasks
// without a deadline and for completed tasks, which don't show one.
func TaskCountdown(task model.Task, now time.Time) Countdown {
	if task.Completed || task.DueDate == nil {
		return Countdown{}
	}
	return Remaining(*task.DueDate, now)
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
