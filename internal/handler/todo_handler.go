package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoapp/internal/middleware"
	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/todo"
)

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	CreateTodo(ctx context.Context, in todo.CreateInput) (*model.Todo, error)
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	GetUserTodos(ctx context.Context, userID string) ([]*model.Todo, error)
	UpdateTodo(ctx context.Context, in todo.UpdateInput) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	CompleteTodo(ctx context.Context, id string) (*model.Todo, error)
	UncompleteTodo(ctx context.Context, id string) (*model.Todo, error)
}

// TodoHandler はTodo関連のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{service: service}
}

// createTodoRequest はTodo作成リクエストのボディ。
type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	UserID      string  `json:"userId"`
}

// updateTodoRequest はTodo更新リクエストのボディ。
type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// CreateTodo はTodoを作成する。
// POST /todos
// userIdが省略された場合は認証済みユーザーのIDを使う。
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	if req.UserID == "" {
		if userID, err := middleware.UserIDFromContext(r.Context()); err == nil {
			req.UserID = userID
		}
	}
	if strings.TrimSpace(req.Title) == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("title is required"))
		return
	}
	if req.UserID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userId is required"))
		return
	}

	t, err := h.service.CreateTodo(r.Context(), todo.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		UserID:      req.UserID,
	})
	if err != nil {
		handleServiceError(w, err, "Error creating todo")
		return
	}

	writeJSONResponse(w, http.StatusCreated, t)
}

// GetTodo は指定IDのTodoを返す。
// GET /todos/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "Todo ID is missing")
		return
	}

	t, err := h.service.GetTodo(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, "Error retrieving todo")
		return
	}
	if t == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTodoNotFoundError())
		return
	}

	writeJSONResponse(w, http.StatusOK, t)
}

// GetUserTodos はユーザーのTodo一覧を返す。
// GET /users/{userId}/todos
func (h *TodoHandler) GetUserTodos(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "User ID is missing")
		return
	}

	todos, err := h.service.GetUserTodos(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, "Error retrieving todos")
		return
	}
	if todos == nil {
		todos = []*model.Todo{}
	}

	writeJSONResponse(w, http.StatusOK, todos)
}

// UpdateTodo はTodoを部分更新する。
// PUT /todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "Todo ID is missing")
		return
	}

	var req updateTodoRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	t, err := h.service.UpdateTodo(r.Context(), todo.UpdateInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		handleServiceError(w, err, "Error updating todo")
		return
	}

	writeJSONResponse(w, http.StatusOK, t)
}

// DeleteTodo はTodoを削除する。
// DELETE /todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "Todo ID is missing")
		return
	}

	if err := h.service.DeleteTodo(r.Context(), id); err != nil {
		handleServiceError(w, err, "Error deleting todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTodo はTodoを完了にする。
// POST /todos/{id}/complete
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompleteTodo, "Error completing todo")
}

// UncompleteTodo はTodoを未完了に戻す。
// POST /todos/{id}/uncomplete
func (h *TodoHandler) UncompleteTodo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.UncompleteTodo, "Error uncompleting todo")
}

func (h *TodoHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string) (*model.Todo, error),
	failureMessage string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "Todo ID is missing")
		return
	}

	t, err := apply(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, failureMessage)
		return
	}

	writeJSONResponse(w, http.StatusOK, t)
}
