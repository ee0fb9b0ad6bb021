package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/todo"
)

var fixedTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestTodo(id, title string) *model.Todo {
	return model.ReconstructTodo(id, title, nil, false, "user-1", fixedTime, fixedTime)
}

// --- POST /todos テスト ---

func TestTodoHandler_CreateTodo_Success(t *testing.T) {
	svc := &mockTodoService{
		createTodoFn: func(ctx context.Context, in todo.CreateInput) (*model.Todo, error) {
			if in.Title != "Buy milk" {
				t.Errorf("Title = %q, want %q", in.Title, "Buy milk")
			}
			if in.UserID != "user-1" {
				t.Errorf("UserID = %q, want %q", in.UserID, "user-1")
			}
			if in.Description == nil || *in.Description != "2 liters" {
				t.Errorf("Description = %v, want %q", in.Description, "2 liters")
			}
			return model.NewTodo(in.Title, in.Description, in.UserID, fixedTime), nil
		},
	}
	h := NewTodoHandler(svc)

	body := `{"title":"Buy milk","description":"2 liters","userId":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateTodo(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var got model.Todo
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if got.Completed {
		t.Error("expected Completed to be false")
	}
	if got.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", got.Title, "Buy milk")
	}
}

func TestTodoHandler_CreateTodo_UsesAuthenticatedUserWhenUserIDOmitted(t *testing.T) {
	var gotUserID string
	svc := &mockTodoService{
		createTodoFn: func(ctx context.Context, in todo.CreateInput) (*model.Todo, error) {
			gotUserID = in.UserID
			return model.NewTodo(in.Title, nil, in.UserID, fixedTime), nil
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"Walk"}`))
	req = withUserID(req, "user-from-token")
	w := httptest.NewRecorder()

	h.CreateTodo(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotUserID != "user-from-token" {
		t.Errorf("UserID = %q, want %q", gotUserID, "user-from-token")
	}
}

func TestTodoHandler_CreateTodo_EmptyBody(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{})

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(""))
	w := httptest.NewRecorder()

	h.CreateTodo(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseErrorResponse(t, w)["message"]; got != "Request body is missing" {
		t.Errorf("message = %q, want %q", got, "Request body is missing")
	}
}

func TestTodoHandler_CreateTodo_MalformedBody(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{})

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.CreateTodo(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseErrorResponse(t, w)["message"]; got != "Invalid request body" {
		t.Errorf("message = %q, want %q", got, "Invalid request body")
	}
}

func TestTodoHandler_CreateTodo_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"title missing", `{"userId":"user-1"}`},
		{"title blank", `{"title":"   ","userId":"user-1"}`},
		{"userId missing", `{"title":"Buy milk"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockTodoService{
				createTodoFn: func(ctx context.Context, in todo.CreateInput) (*model.Todo, error) {
					called = true
					return nil, nil
				},
			}
			h := NewTodoHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.CreateTodo(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if got := parseErrorResponse(t, w)["code"]; got != model.ErrCodeValidationFailed {
				t.Errorf("code = %q, want %q", got, model.ErrCodeValidationFailed)
			}
			if called {
				t.Error("expected CreateTodo not to be called")
			}
		})
	}
}

func TestTodoHandler_CreateTodo_ServiceError(t *testing.T) {
	svc := &mockTodoService{
		createTodoFn: func(ctx context.Context, in todo.CreateInput) (*model.Todo, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"a","userId":"u"}`))
	w := httptest.NewRecorder()

	h.CreateTodo(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	resp := parseErrorResponse(t, w)
	if resp["message"] != "Error creating todo" {
		t.Errorf("message = %q, want %q", resp["message"], "Error creating todo")
	}
	if strings.Contains(resp["error"], "connection refused") {
		t.Errorf("error detail must not leak infrastructure errors: %q", resp["error"])
	}
}

// --- GET /todos/{id} テスト ---

func TestTodoHandler_GetTodo_Success(t *testing.T) {
	svc := &mockTodoService{
		getTodoFn: func(ctx context.Context, id string) (*model.Todo, error) {
			return newTestTodo(id, "Buy milk"), nil
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/todos/todo-1", nil)
	req = withChiURLParam(req, "id", "todo-1")
	w := httptest.NewRecorder()

	h.GetTodo(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got model.Todo
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "todo-1" {
		t.Errorf("ID = %q, want %q", got.ID, "todo-1")
	}
}

func TestTodoHandler_GetTodo_NotFound(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{})

	req := httptest.NewRequest(http.MethodGet, "/todos/nonexistent-id", nil)
	req = withChiURLParam(req, "id", "nonexistent-id")
	w := httptest.NewRecorder()

	h.GetTodo(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseErrorResponse(t, w)["message"]; got != "Todo not found" {
		t.Errorf("message = %q, want %q", got, "Todo not found")
	}
}

func TestTodoHandler_GetTodo_MissingID(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{})

	req := httptest.NewRequest(http.MethodGet, "/todos/", nil)
	w := httptest.NewRecorder()

	h.GetTodo(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseErrorResponse(t, w)["message"]; got != "Todo ID is missing" {
		t.Errorf("message = %q, want %q", got, "Todo ID is missing")
	}
}

// --- PUT /todos/{id} テスト ---

func TestTodoHandler_UpdateTodo_PassesPartialFields(t *testing.T) {
	var got todo.UpdateInput
	svc := &mockTodoService{
		updateTodoFn: func(ctx context.Context, in todo.UpdateInput) (*model.Todo, error) {
			got = in
			return newTestTodo(in.ID, "x"), nil
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/todos/todo-1", strings.NewReader(`{"completed":true}`))
	req = withChiURLParam(req, "id", "todo-1")
	w := httptest.NewRecorder()

	h.UpdateTodo(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.ID != "todo-1" {
		t.Errorf("ID = %q, want %q", got.ID, "todo-1")
	}
	if got.Title != nil || got.Description != nil {
		t.Errorf("expected title and description to be nil, got %v / %v", got.Title, got.Description)
	}
	if got.Completed == nil || !*got.Completed {
		t.Errorf("Completed = %v, want true", got.Completed)
	}
}

func TestTodoHandler_UpdateTodo_NotFound(t *testing.T) {
	svc := &mockTodoService{
		updateTodoFn: func(ctx context.Context, in todo.UpdateInput) (*model.Todo, error) {
			return nil, model.NewTodoNotFoundError()
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/todos/missing", strings.NewReader(`{"title":"x"}`))
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.UpdateTodo(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseErrorResponse(t, w)["code"]; got != model.ErrCodeTodoNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeTodoNotFound)
	}
}

func TestTodoHandler_UpdateTodo_EmptyBody(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{})

	req := httptest.NewRequest(http.MethodPut, "/todos/todo-1", nil)
	req = withChiURLParam(req, "id", "todo-1")
	w := httptest.NewRecorder()

	h.UpdateTodo(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- DELETE /todos/{id} テスト ---

func TestTodoHandler_DeleteTodo_Success(t *testing.T) {
	deleted := ""
	svc := &mockTodoService{
		deleteTodoFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/todos/todo-1", nil)
	req = withChiURLParam(req, "id", "todo-1")
	w := httptest.NewRecorder()

	h.DeleteTodo(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != "todo-1" {
		t.Errorf("deleted = %q, want %q", deleted, "todo-1")
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestTodoHandler_DeleteTodo_NotFound(t *testing.T) {
	svc := &mockTodoService{
		deleteTodoFn: func(ctx context.Context, id string) error {
			return model.NewTodoNotFoundError()
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/todos/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.DeleteTodo(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- POST /todos/{id}/complete, /uncomplete テスト ---

func TestTodoHandler_CompleteAndUncomplete(t *testing.T) {
	svc := &mockTodoService{
		completeTodoFn: func(ctx context.Context, id string) (*model.Todo, error) {
			td := newTestTodo(id, "x")
			td.Complete(fixedTime)
			return td, nil
		},
		uncompleteTodoFn: func(ctx context.Context, id string) (*model.Todo, error) {
			return newTestTodo(id, "x"), nil
		},
	}
	h := NewTodoHandler(svc)

	tests := []struct {
		name          string
		handle        http.HandlerFunc
		wantCompleted bool
	}{
		{"complete", h.CompleteTodo, true},
		{"uncomplete", h.UncompleteTodo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/todos/todo-1/"+tt.name, nil)
			req = withChiURLParam(req, "id", "todo-1")
			w := httptest.NewRecorder()

			tt.handle(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			var got model.Todo
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if got.Completed != tt.wantCompleted {
				t.Errorf("Completed = %v, want %v", got.Completed, tt.wantCompleted)
			}
		})
	}
}

func TestTodoHandler_CompleteTodo_NotFound(t *testing.T) {
	svc := &mockTodoService{
		completeTodoFn: func(ctx context.Context, id string) (*model.Todo, error) {
			return nil, model.NewTodoNotFoundError()
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/todos/missing/complete", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.CompleteTodo(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /users/{userId}/todos テスト ---

func TestTodoHandler_GetUserTodos_EmptyListIsArray(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{})

	req := httptest.NewRequest(http.MethodGet, "/users/user-1/todos", nil)
	req = withChiURLParam(req, "userId", "user-1")
	w := httptest.NewRecorder()

	h.GetUserTodos(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want %q", got, "[]")
	}
}

func TestTodoHandler_GetUserTodos_ReturnsRepositoryOrder(t *testing.T) {
	svc := &mockTodoService{
		getUserTodosFn: func(ctx context.Context, userID string) ([]*model.Todo, error) {
			return []*model.Todo{newTestTodo("a", "first"), newTestTodo("b", "second")}, nil
		},
	}
	h := NewTodoHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/users/user-1/todos", nil)
	req = withChiURLParam(req, "userId", "user-1")
	w := httptest.NewRecorder()

	h.GetUserTodos(w, req)

	var got []model.Todo
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("unexpected order: %+v", got)
	}
}
