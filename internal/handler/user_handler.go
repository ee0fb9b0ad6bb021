package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoapp/internal/middleware"
	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// CreateUser はIdPへの登録とユーザー保存を行う。
	CreateUser(ctx context.Context, in user.CreateInput) (*model.User, error)
	// GetUser は指定IDのユーザーを返す。存在しない場合はnilを返す。
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, in user.UpdateInput) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name *string `json:"name"`
}

// CreateUser はユーザーを登録する。
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("email, name and password are required"))
		return
	}

	u, err := h.service.CreateUser(r.Context(), user.CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err, "Error creating user")
		return
	}

	writeJSONResponse(w, http.StatusCreated, u)
}

// GetUser は指定IDのユーザーを返す。
// GET /users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "User ID is missing")
		return
	}
	h.writeUser(w, r, id)
}

// Me は認証済みユーザー自身の情報を返す。
// GET /auth/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteMessageResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.writeUser(w, r, userID)
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, "Error retrieving user")
		return
	}
	if u == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSONResponse(w, http.StatusOK, u)
}

// UpdateUser はユーザーの表示名を更新する。
// PUT /users/{userId}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "User ID is missing")
		return
	}

	var req updateUserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	u, err := h.service.UpdateUser(r.Context(), user.UpdateInput{ID: id, Name: req.Name})
	if err != nil {
		handleServiceError(w, err, "Error updating user")
		return
	}

	writeJSONResponse(w, http.StatusOK, u)
}

// DeleteUser はユーザーを削除する。
// DELETE /users/{userId}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	if id == "" {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "User ID is missing")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		handleServiceError(w, err, "Error deleting user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
