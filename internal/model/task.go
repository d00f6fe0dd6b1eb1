package model

import "time"

// Task is a single to-do item. The JSON field names match the persisted
// document layout, so loading and re-saving an existing document keeps
// its shape.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	DueDate   *int64    `json:"dueDate,omitempty"` // epoch milliseconds
	CreatedAt time.Time `json:"createdAt"`
	Subtasks  []Subtask `json:"subtasks"`
}

// Subtask is a child item of a Task. Subtask IDs are unique within
// their parent task only.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	DueDate   *int64 `json:"dueDate,omitempty"`
}

// Due returns the task's due date as a time.Time, or false when the
// task has no deadline.
func (t Task) Due() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.DueDate), true
}

// Millis converts an instant to the epoch-millisecond encoding used in
// the stored document.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Normalize ensures every task has a non-nil subtask slice. Older
// stored documents may omit the field entirely; normalizing once at the
// store boundary lets every consumer assume presence.
func Normalize(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	for i := range tasks {
		if tasks[i].Subtasks == nil {
			tasks[i].Subtasks = []Subtask{}
		}
	}
	return tasks
}

// FindTask returns the index of the task with the given id, or -1.
func FindTask(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSubtask returns the index of the subtask with the given id within
// a task's subtask list, or -1.
func FindSubtask(subtasks []Subtask, id string) int {
	for i := range subtasks {
		if subtasks[i].ID == id {
			return i
		}
	}
	return -1
}
