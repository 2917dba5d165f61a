package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests.
//
// Owner selection: smart_assign true requests balanced assignment to the
// least-loaded user; otherwise owner_id is honored when present and the
// caller becomes the owner when not.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	ownerID := userID
	if req.SmartAssign {
		ownerID = uuid.Nil
	} else if req.OwnerID != nil {
		ownerID = *req.OwnerID
	}

	task, err := h.taskService.Create(r.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     ownerID,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.UserID.String()),
		slog.Bool("smart_assign", req.SmartAssign))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /tasks requests.
// It returns the authenticated user's tasks, newest first.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	task, err := h.taskService.Get(r.Context(), taskID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id} requests.
//
// The client's last-read edit clock arrives in the X-Last-Edited header.
// When present and stale, the response is 409 with both the current server
// record and the rejected patch. When absent, the update is applied
// unconditionally.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	clientLastEdited, err := getLastEditedHeader(r)
	if err != nil {
		log.Warn("malformed edit clock header",
			slog.String("value", r.Header.Get(lastEditedHeader)))
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	patch := req.patch()
	if patch.IsEmpty() {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No fields to update")
		return
	}

	task, err := h.taskService.Update(r.Context(), taskID, userID, patch, clientLastEdited)
	if err != nil {
		if conflict, ok := service.IsConflictError(err); ok {
			log.Info("update rejected: concurrent edit",
				slog.String("task_id", taskID.String()))
			shared.RespondWithJSON(w, r, http.StatusConflict, ConflictResponse{
				Message:       "Task was edited by someone else",
				Type:          ConflictType,
				ServerVersion: taskToResponse(conflict.ServerVersion),
				ClientVersion: conflict.ClientVersion,
			})
			return
		}
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	if err := h.taskService.Delete(r.Context(), taskID, userID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to delete task", err)
		return
	}

	log.Debug("task deleted", slog.String("task_id", taskID.String()))
	w.WriteHeader(http.StatusNoContent)
}
