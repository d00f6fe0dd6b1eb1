package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/taskline-app/taskline/internal/model"
	"github.com/taskline-app/taskline/internal/service"
	"github.com/taskline-app/taskline/internal/store"
)

var (
	validate     = validator.New()
	queryDecoder = newQueryDecoder()
)

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// taskQuery addresses a task, and optionally a subtask within it, via
// query parameters.
type taskQuery struct {
	ID        string `schema:"id"`
	SubtaskID string `schema:"subtaskId"`
}

type TasksHandler struct {
	svc *service.TaskService
}

func NewTasksHandler(svc *service.TaskService) *TasksHandler {
	return &TasksHandler{svc: svc}
}

// ServeHTTP routes /tasks. Task and subtask addressing uses the id and
// subtaskId query parameters rather than path segments, matching the
// document layout the clients already speak.
func (h *TasksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	case http.MethodOptions:
		// Preflight is answered by the CORS middleware; reaching
		// here still means 200 with no body.
		w.WriteHeader(http.StatusOK)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (h *TasksHandler) handleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Text     string `json:"text" validate:"required"`
	DueDate  *int64 `json:"dueDate"`
	ParentID string `json:"parentId"`
}

// handleCreate accepts two body shapes: a JSON array replaces the whole
// document; an object appends a task, or a subtask when parentId is
// set.
func (h *TasksHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "failed to read request body")
		return
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		h.handleReplaceAll(w, r, trimmed)
		return
	}

	var req createTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", "text is required")
		return
	}

	var tasks []model.Task
	if req.ParentID != "" {
		tasks, err = h.svc.AddSubtask(r.Context(), req.ParentID, service.CreateSubtaskInput{
			Text:    req.Text,
			DueDate: req.DueDate,
		})
	} else {
		tasks, err = h.svc.CreateTask(r.Context(), service.CreateTaskInput{
			Text:    req.Text,
			DueDate: req.DueDate,
		})
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, tasks)
}

func (h *TasksHandler) handleReplaceAll(w http.ResponseWriter, r *http.Request, body []byte) {
	var tasks []model.Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid task list")
		return
	}

	saved, err := h.svc.ReplaceAll(r.Context(), tasks)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

type updateTaskRequest struct {
	Text      *string           `json:"text,omitempty"`
	Completed *bool             `json:"completed,omitempty"`
	DueDate   model.MillisPatch `json:"dueDate"`
}

func (h *TasksHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	var tasks []model.Task
	var err error
	if q.SubtaskID != "" {
		tasks, err = h.svc.UpdateSubtask(r.Context(), q.ID, q.SubtaskID, service.UpdateSubtaskInput{
			Text:      req.Text,
			Completed: req.Completed,
			DueDate:   req.DueDate,
		})
	} else {
		tasks, err = h.svc.UpdateTask(r.Context(), q.ID, service.UpdateTaskInput{
			Text:      req.Text,
			Completed: req.Completed,
			DueDate:   req.DueDate,
		})
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tasks)
}

func (h *TasksHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	var tasks []model.Task
	var err error
	if q.SubtaskID != "" {
		tasks, err = h.svc.DeleteSubtask(r.Context(), q.ID, q.SubtaskID)
	} else {
		tasks, err = h.svc.DeleteTask(r.Context(), q.ID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tasks)
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (taskQuery, bool) {
	var q taskQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_QUERY", "invalid query parameters")
		return q, false
	}
	if q.ID == "" {
		WriteError(w, http.StatusBadRequest, "MISSING_ID", "id query parameter is required")
		return q, false
	}
	return q, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "task or subtask not found")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, store.ErrCorruptData):
		WriteError(w, http.StatusInternalServerError, "CORRUPT_DATA", "stored task document is corrupt")
	case errors.Is(err, store.ErrUnavailable):
		WriteError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "task storage is unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
