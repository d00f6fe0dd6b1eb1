package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskline-app/taskline/internal/model"
	"github.com/taskline-app/taskline/internal/store"
)

// TaskService owns every mutation of the task document. Each operation
// is one load-mutate-save cycle against the store; the document is the
// unit of consistency, and concurrent cycles race last-writer-wins
// unless the serialized option is enabled.
type TaskService struct {
	store      store.Store
	now        func() time.Time
	newID      func() string
	serialized bool
	mu         sync.Mutex
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithSerialized wraps every load-mutate-save cycle in a process-wide
// mutex. This is a consistency upgrade over the default last-writer-
// wins behavior and is only enabled explicitly, never by default.
func WithSerialized() Option {
	return func(s *TaskService) { s.serialized = true }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// WithIDSource overrides id generation, for tests.
func WithIDSource(newID func() string) Option {
	return func(s *TaskService) { s.newID = newID }
}

func NewTaskService(st store.Store, opts ...Option) *TaskService {
	s := &TaskService{
		store: st,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialized reports whether the optional per-document mutex is on.
func (s *TaskService) Serialized() bool {
	return s.serialized
}

func (s *TaskService) lock() func() {
	if !s.serialized {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// List returns the full document.
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// ReplaceAll overwrites the whole document with the given sequence.
func (s *TaskService) ReplaceAll(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	seen := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		if tasks[i].ID == "" {
			return nil, fmt.Errorf("%w: task %d has no id", ErrInvalidInput, i)
		}
		if strings.TrimSpace(tasks[i].Text) == "" {
			return nil, fmt.Errorf("%w: task %q has empty text", ErrInvalidInput, tasks[i].ID)
		}
		if _, dup := seen[tasks[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrInvalidInput, tasks[i].ID)
		}
		seen[tasks[i].ID] = struct{}{}
	}

	defer s.lock()()
	tasks = model.Normalize(tasks)
	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}

type CreateTaskInput struct {
	Text    string
	DueDate *int64 // epoch milliseconds
}

// CreateTask appends a new task and returns the updated document.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) ([]model.Task, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	defer s.lock()()
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	task := model.Task{
		ID:        "task_" + s.newID(),
		Text:      input.Text,
		Completed: false,
		DueDate:   input.DueDate,
		CreatedAt: s.now().UTC(),
		Subtasks:  []model.Subtask{},
	}
	tasks = append(tasks, task)

	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}

type CreateSubtaskInput struct {
	Text    string
	DueDate *int64
}

// AddSubtask appends a subtask to an existing task and returns the
// updated document.
func (s *TaskService) AddSubtask(ctx context.Context, parentID string, input CreateSubtaskInput) ([]model.Task, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	defer s.lock()()
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	i := model.FindTask(tasks, parentID)
	if i < 0 {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, parentID)
	}

	sub := model.Subtask{
		ID:      s.subtaskID(tasks[i].Subtasks),
		Text:    input.Text,
		DueDate: input.DueDate,
	}
	tasks[i].Subtasks = append(tasks[i].Subtasks, sub)

	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}

// subtaskID generates an id unique among the given siblings.
func (s *TaskService) subtaskID(siblings []model.Subtask) string {
	for {
		id := "sub_" + s.newID()
		if model.FindSubtask(siblings, id) < 0 {
			return id
		}
	}
}

type UpdateTaskInput struct {
	Text      *string
	Completed *bool
	DueDate   model.MillisPatch
}

// UpdateTask overwrites only the fields present in the input and
// returns the updated document.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) ([]model.Task, error) {
	if input.Text != nil && strings.TrimSpace(*input.Text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
	}

	defer s.lock()()
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	i := model.FindTask(tasks, taskID)
	if i < 0 {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}

	if input.Text != nil {
		tasks[i].Text = *input.Text
	}
	if input.Completed != nil {
		tasks[i].Completed = *input.Completed
	}
	if input.DueDate.Valid {
		tasks[i].DueDate = input.DueDate.Millis
	}

	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}

type UpdateSubtaskInput struct {
	Text      *string
	Completed *bool
	DueDate   model.MillisPatch
}

// UpdateSubtask applies the same partial-overwrite semantics one level
// down.
func (s *TaskService) UpdateSubtask(ctx context.Context, taskID, subtaskID string, input UpdateSubtaskInput) ([]model.Task, error) {
	if input.Text != nil && strings.TrimSpace(*input.Text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
	}

	defer s.lock()()
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	i := model.FindTask(tasks, taskID)
	if i < 0 {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	j := model.FindSubtask(tasks[i].Subtasks, subtaskID)
	if j < 0 {
		return nil, fmt.Errorf("%w: subtask %q in task %q", ErrNotFound, subtaskID, taskID)
	}

	sub := &tasks[i].Subtasks[j]
	if input.Text != nil {
		sub.Text = *input.Text
	}
	if input.Completed != nil {
		sub.Completed = *input.Completed
	}
	if input.DueDate.Valid {
		sub.DueDate = input.DueDate.Millis
	}

	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes a task and returns the updated document. The
// stored document is unchanged when the id is unknown.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) ([]model.Task, error) {
	defer s.lock()()
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	i := model.FindTask(tasks, taskID)
	if i < 0 {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	tasks = append(tasks[:i], tasks[i+1:]...)

	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}

// DeleteSubtask removes one subtask from its parent and returns the
// updated document.
func (s *TaskService) DeleteSubtask(ctx context.Context, taskID, subtaskID string) ([]model.Task, error) {
	defer s.lock()()
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	i := model.FindTask(tasks, taskID)
	if i < 0 {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	j := model.FindSubtask(tasks[i].Subtasks, subtaskID)
	if j < 0 {
		return nil, fmt.Errorf("%w: subtask %q in task %q", ErrNotFound, subtaskID, taskID)
	}
	tasks[i].Subtasks = append(tasks[i].Subtasks[:j], tasks[i].Subtasks[j+1:]...)

	if err := s.store.SaveAll(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}
	return tasks, nil
}
