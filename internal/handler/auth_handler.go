package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoapp/internal/middleware"
	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	AuthenticateUser(ctx context.Context, email, password string) (*user.AuthResult, error)
}

// AuthHandler はトークン発行のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token はメールアドレスとパスワードを検証し、アクセストークンを返す。
// POST /auth/token
// 認証に失敗した場合は理由を問わず401を返す。
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("email and password are required"))
		return
	}

	result, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			slog.Error("authentication failed", slog.String("error", err.Error()))
		}
		middleware.WriteFailureResponse(w, http.StatusUnauthorized, "Authentication failed", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, tokenResponse{Token: result.Token})
}
