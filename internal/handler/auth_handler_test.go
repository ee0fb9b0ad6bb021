package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/user"
)

func TestAuthHandler_Token_Success(t *testing.T) {
	svc := &mockUserService{
		authenticateUserFn: func(ctx context.Context, email, password string) (*user.AuthResult, error) {
			if email != "a@example.com" || password != "password123" {
				t.Errorf("unexpected credentials: %q / %q", email, password)
			}
			return &user.AuthResult{
				User:  model.NewUser("user-1", email, "Alice", fixedTime),
				Token: "signed-token",
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"email":"a@example.com","password":"password123"}`))
	w := httptest.NewRecorder()

	h.Token(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["token"] != "signed-token" {
		t.Errorf("token = %q, want %q", got["token"], "signed-token")
	}
}

func TestAuthHandler_Token_FailuresReturnUnauthorized(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantError string
	}{
		{
			name:      "invalid credentials",
			err:       model.NewInvalidCredentialsError(),
			wantError: "Invalid credentials",
		},
		{
			name:      "wrapped invalid credentials",
			err:       fmt.Errorf("IdPでの認証に失敗しました: %w", model.NewInvalidCredentialsError()),
			wantError: "Invalid credentials",
		},
		{
			name:      "infrastructure failure",
			err:       errors.New("dial tcp: connection refused"),
			wantError: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				authenticateUserFn: func(ctx context.Context, email, password string) (*user.AuthResult, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/token",
				strings.NewReader(`{"email":"a@example.com","password":"wrong-password"}`))
			w := httptest.NewRecorder()

			h.Token(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			resp := parseErrorResponse(t, w)
			if resp["message"] != "Authentication failed" {
				t.Errorf("message = %q, want %q", resp["message"], "Authentication failed")
			}
			if resp["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", resp["error"], tt.wantError)
			}
		})
	}
}

func TestAuthHandler_Token_MissingFields(t *testing.T) {
	h := NewAuthHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"email":"a@example.com"}`))
	w := httptest.NewRecorder()

	h.Token(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
