package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/todoapp/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// messageは常に含み、errorには失敗の詳細、codeにはドメインエラーコードを入れる。
type ErrorResponseBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// genericErrorDetail はドメインエラー以外の失敗で利用者に見せる文言。
const genericErrorDetail = "internal error"

// WriteErrorResponse はドメインエラーを統一エラーフォーマットで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, ErrorResponseBody{
		Message: apiErr.Message,
		Code:    apiErr.Code,
	})
}

// WriteFailureResponse は操作単位の失敗メッセージとエラー詳細を書き込む。
// errがドメインエラーの場合はそのメッセージを、それ以外は一般的な文言をerrorに入れる。
// インフラ層の詳細はログのみに記録する。
func WriteFailureResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	body := ErrorResponseBody{Message: message, Error: genericErrorDetail}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		body.Error = apiErr.Message
		body.Code = apiErr.Code
	}
	writeJSON(w, statusCode, body)
}

// WriteMessageResponse はmessageのみのエラーレスポンスを書き込む。
func WriteMessageResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponseBody{Message: message})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteMessageResponse(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
