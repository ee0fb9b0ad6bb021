// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoapp/internal/middleware"
	"github.com/hitoshi/todoapp/internal/model"
)

// リクエストボディの上限サイズ（1MB）
const maxRequestBodySize = 1 << 20

// errEmptyBody はリクエストボディが空の場合のエラー。
var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody はリクエストボディをdstにデコードする。
// ボディが空の場合はerrEmptyBodyを返す。
func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// writeBodyError はボディのデコード失敗を400で返す。
func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errEmptyBody) {
		middleware.WriteMessageResponse(w, http.StatusBadRequest, "Request body is missing")
		return
	}
	middleware.WriteMessageResponse(w, http.StatusBadRequest, "Invalid request body")
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// 未検出・検証エラー・認証失敗はドメインエラーとして返し、
// それ以外は操作単位の失敗メッセージ付きの500とする。
func handleServiceError(w http.ResponseWriter, err error, failureMessage string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode != http.StatusInternalServerError {
			middleware.WriteErrorResponse(w, statusCode, apiErr)
			return
		}
		middleware.WriteFailureResponse(w, statusCode, failureMessage, err)
		return
	}

	slog.Error("internal server error",
		slog.String("operation", failureMessage),
		slog.String("error", err.Error()),
	)
	middleware.WriteFailureResponse(w, http.StatusInternalServerError, failureMessage, err)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// メールアドレス重複は登録処理の失敗として500に含める。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeTodoNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
