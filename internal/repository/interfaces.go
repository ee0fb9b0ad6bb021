// Package repository はデータ永続化のインターフェースと実装を定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/todoapp/internal/model"
)

// ErrCredentialExists は同じメールアドレスの認証情報が既に存在する場合に返される。
var ErrCredentialExists = errors.New("credential already exists")

// TodoRepository はTodoデータの永続化インターフェース。
type TodoRepository interface {
	// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Todo, error)

	// FindByUserID はユーザーが所有するTodoを作成順で返す。
	FindByUserID(ctx context.Context, userID string) ([]*model.Todo, error)

	// Save はTodoを保存する。同じIDが存在する場合は上書きする。
	Save(ctx context.Context, todo *model.Todo) error

	// Delete は指定IDのTodoを削除する。存在しない場合は何もしない。
	Delete(ctx context.Context, id string) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Save はユーザーを保存する。同じIDが存在する場合は上書きする。
	Save(ctx context.Context, user *model.User) error

	// Delete は指定IDのユーザーを削除する。
	Delete(ctx context.Context, id string) error
}

// CredentialRepository はIdPが保持する認証情報の永続化インターフェース。
type CredentialRepository interface {
	// FindByEmail はメールアドレスで認証情報を取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Credential, error)

	// Create は認証情報を登録する。
	// メールアドレスが重複する場合はErrCredentialExistsを返す。
	Create(ctx context.Context, cred *model.Credential) error
}
