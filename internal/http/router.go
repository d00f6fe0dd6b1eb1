package http

import (
	"net/http"

	"github.com/taskline-app/taskline/internal/http/handler"
	"github.com/taskline-app/taskline/internal/service"
)

func NewRouter(taskSvc *service.TaskService) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally separate from the task surface for
	// load balancer compatibility
	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	// The whole task API lives on one route; task and subtask
	// addressing uses query parameters
	tasks := handler.NewTasksHandler(taskSvc)
	mux.Handle("/tasks", tasks)

	return mux
}
