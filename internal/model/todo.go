// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Todo はユーザーが所有するタスクを表す。
// ID と CreatedAt は生成後に変更されない。状態遷移メソッドは必ず UpdatedAt を更新する。
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewTodo は新しいIDとタイムスタンプを割り当てて未完了のTodoを生成する。
func NewTodo(title string, description *string, userID string, now time.Time) *Todo {
	return &Todo{
		ID:          uuid.New().String(),
		Title:       title,
		Description: cloneString(description),
		Completed:   false,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ReconstructTodo は永続化済みの値からTodoを復元する。
// IDとタイムスタンプはそのまま引き継ぐ。
func ReconstructTodo(id, title string, description *string, completed bool, userID string, createdAt, updatedAt time.Time) *Todo {
	return &Todo{
		ID:          id,
		Title:       title,
		Description: cloneString(description),
		Completed:   completed,
		UserID:      userID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// Complete はTodoを完了状態にする。
func (t *Todo) Complete(now time.Time) {
	t.Completed = true
	t.UpdatedAt = now
}

// Uncomplete はTodoを未完了状態に戻す。
func (t *Todo) Uncomplete(now time.Time) {
	t.Completed = false
	t.UpdatedAt = now
}

// Update はタイトルと説明を更新する。
// descriptionがnilの場合、既存の説明は維持される。
func (t *Todo) Update(title string, description *string, now time.Time) {
	t.Title = title
	if description != nil {
		t.Description = cloneString(description)
	}
	t.UpdatedAt = now
}

// DescriptionOrEmpty は説明を返す。未設定の場合は空文字。
func (t *Todo) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Clone はTodoのディープコピーを返す。
func (t *Todo) Clone() *Todo {
	c := *t
	c.Description = cloneString(t.Description)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
