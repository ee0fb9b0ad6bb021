// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// ユースケースが返す型付きエラーで、HTTP層でステータスコードに変換される。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, todo, user, system
	Action   string // 利用者向けの対処方法
}

// Error はerrorインターフェースを実装する。
// 呼び出し元にはMessageのみを見せる。
func (e *APIError) Error() string {
	return e.Message
}

// 定義済みエラーコード
const (
	ErrCodeTodoNotFound       = "TODO_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
)

// NewTodoNotFoundError はTodo未検出エラーを生成する。
func NewTodoNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTodoNotFound,
		Message:  "Todo not found",
		Category: "todo",
		Action:   "Check the todo ID.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "user",
		Action:   "Check the user ID.",
	}
}

// NewUserAlreadyExistsError はメールアドレス重複エラーを生成する。
func NewUserAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "User with this email already exists",
		Category: "user",
		Action:   "Sign in with the existing account or use another email address.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check the email address and password.",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Validation failed: %s", reason),
		Category: "validation",
		Action:   "Fix the request fields and try again.",
	}
}

// IsNotFound はerrがTodoまたはユーザーの未検出エラーかどうかを返す。
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeTodoNotFound) || hasCode(err, ErrCodeUserNotFound)
}

// IsConflict はerrが一意キー重複エラーかどうかを返す。
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeUserAlreadyExists)
}

// IsInvalidCredentials はerrが認証失敗エラーかどうかを返す。
func IsInvalidCredentials(err error) bool {
	return hasCode(err, ErrCodeInvalidCredentials)
}

// IsValidation はerrが入力値検証エラーかどうかを返す。
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidationFailed)
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
