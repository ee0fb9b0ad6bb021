package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoapp/internal/middleware"
	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/todo"
	"github.com/hitoshi/todoapp/internal/user"
)

// --- モック定義 ---

// mockTodoService はTodoServiceInterfaceのモック実装。
type mockTodoService struct {
	createTodoFn     func(ctx context.Context, in todo.CreateInput) (*model.Todo, error)
	getTodoFn        func(ctx context.Context, id string) (*model.Todo, error)
	getUserTodosFn   func(ctx context.Context, userID string) ([]*model.Todo, error)
	updateTodoFn     func(ctx context.Context, in todo.UpdateInput) (*model.Todo, error)
	deleteTodoFn     func(ctx context.Context, id string) error
	completeTodoFn   func(ctx context.Context, id string) (*model.Todo, error)
	uncompleteTodoFn func(ctx context.Context, id string) (*model.Todo, error)
}

func (m *mockTodoService) CreateTodo(ctx context.Context, in todo.CreateInput) (*model.Todo, error) {
	if m.createTodoFn != nil {
		return m.createTodoFn(ctx, in)
	}
	return nil, nil
}

func (m *mockTodoService) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	if m.getTodoFn != nil {
		return m.getTodoFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTodoService) GetUserTodos(ctx context.Context, userID string) ([]*model.Todo, error) {
	if m.getUserTodosFn != nil {
		return m.getUserTodosFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockTodoService) UpdateTodo(ctx context.Context, in todo.UpdateInput) (*model.Todo, error) {
	if m.updateTodoFn != nil {
		return m.updateTodoFn(ctx, in)
	}
	return nil, nil
}

func (m *mockTodoService) DeleteTodo(ctx context.Context, id string) error {
	if m.deleteTodoFn != nil {
		return m.deleteTodoFn(ctx, id)
	}
	return nil
}

func (m *mockTodoService) CompleteTodo(ctx context.Context, id string) (*model.Todo, error) {
	if m.completeTodoFn != nil {
		return m.completeTodoFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTodoService) UncompleteTodo(ctx context.Context, id string) (*model.Todo, error) {
	if m.uncompleteTodoFn != nil {
		return m.uncompleteTodoFn(ctx, id)
	}
	return nil, nil
}

// mockUserService はUserAPIのモック実装。
type mockUserService struct {
	createUserFn       func(ctx context.Context, in user.CreateInput) (*model.User, error)
	getUserFn          func(ctx context.Context, id string) (*model.User, error)
	updateUserFn       func(ctx context.Context, in user.UpdateInput) (*model.User, error)
	deleteUserFn       func(ctx context.Context, id string) error
	authenticateUserFn func(ctx context.Context, email, password string) (*user.AuthResult, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, in user.CreateInput) (*model.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, in)
	}
	return nil, nil
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) UpdateUser(ctx context.Context, in user.UpdateInput) (*model.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, in)
	}
	return nil, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, id)
	}
	return nil
}

func (m *mockUserService) AuthenticateUser(ctx context.Context, email, password string) (*user.AuthResult, error) {
	if m.authenticateUserFn != nil {
		return m.authenticateUserFn(ctx, email, password)
	}
	return nil, nil
}

var (
	_ TodoServiceInterface = (*mockTodoService)(nil)
	_ UserAPI              = (*mockUserService)(nil)
)

// --- ヘルパー ---

// withUserID はテスト用にユーザーIDをコンテキストに注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
