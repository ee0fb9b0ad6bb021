// Package todo はTodo管理のユースケースを提供する。
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/todoapp/internal/metrics"
	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/repository"
)

// CreateInput はTodo作成の入力。
type CreateInput struct {
	Title       string
	Description *string
	UserID      string
}

// UpdateInput はTodo更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	ID          string
	Title       *string
	Description *string
	Completed   *bool
}

// Service はTodo管理のサービス層。
type Service struct {
	repo    repository.TodoRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
	group   singleflight.Group
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithClock は時刻の取得元を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics はメトリクス収集先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TodoRepository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTodo は未完了のTodoを作成して保存する。
// タイトルやユーザーIDの必須チェックは呼び出し側の責務とする。
func (s *Service) CreateTodo(ctx context.Context, in CreateInput) (*model.Todo, error) {
	t := model.NewTodo(in.Title, in.Description, in.UserID, s.now())
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("Todoの保存に失敗しました: %w", err)
	}

	s.metrics.RecordTodoCreated()
	slog.Info("todo created",
		slog.String("todo_id", t.ID),
		slog.String("user_id", t.UserID),
	)
	return t, nil
}

// GetTodo は指定IDのTodoを返す。存在しない場合はnilを返す。
func (s *Service) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Todoの取得に失敗しました: %w", err)
	}
	return t, nil
}

// GetUserTodos はユーザーのTodoをリポジトリの順序で返す。
// 同じユーザーに対する同時呼び出しは1回の読み出しにまとめる。
// まとめた読み出しは呼び出し元のキャンセルを引き継がず、各呼び出し元は自分のctxだけを待つ。
func (s *Service) GetUserTodos(ctx context.Context, userID string) ([]*model.Todo, error) {
	readCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(userID, func() (interface{}, error) {
		return s.repo.FindByUserID(readCtx, userID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("Todo一覧の取得に失敗しました: %w", ctx.Err())
	}
	if res.Err != nil {
		return nil, fmt.Errorf("Todo一覧の取得に失敗しました: %w", res.Err)
	}

	// 呼び出し元ごとに独立したスライスを返す
	shared := res.Val.([]*model.Todo)
	todos := make([]*model.Todo, len(shared))
	for i, t := range shared {
		todos[i] = t.Clone()
	}
	return todos, nil
}

// UpdateTodo はTodoを部分更新する。
// 説明はタイトルが空でない場合にのみタイトルと一緒に反映される。説明だけの更新は無視される。
func (s *Service) UpdateTodo(ctx context.Context, in UpdateInput) (*model.Todo, error) {
	t, err := s.load(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if in.Title != nil && *in.Title != "" {
		t.Update(*in.Title, in.Description, now)
	}
	if in.Completed != nil {
		if *in.Completed {
			t.Complete(now)
			s.metrics.RecordTodoCompleted()
		} else {
			t.Uncomplete(now)
		}
	}

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("Todoの保存に失敗しました: %w", err)
	}

	slog.Info("todo updated", slog.String("todo_id", t.ID))
	return t, nil
}

// DeleteTodo はTodoを削除する。存在しない場合はNotFoundを返す。
func (s *Service) DeleteTodo(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("Todoの削除に失敗しました: %w", err)
	}

	slog.Info("todo deleted", slog.String("todo_id", id))
	return nil
}

// CompleteTodo はTodoを完了状態にする。
func (s *Service) CompleteTodo(ctx context.Context, id string) (*model.Todo, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Complete(s.now())
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("Todoの保存に失敗しました: %w", err)
	}

	s.metrics.RecordTodoCompleted()
	slog.Info("todo completed", slog.String("todo_id", id))
	return t, nil
}

// UncompleteTodo はTodoを未完了状態に戻す。
func (s *Service) UncompleteTodo(ctx context.Context, id string) (*model.Todo, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Uncomplete(s.now())
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("Todoの保存に失敗しました: %w", err)
	}

	slog.Info("todo uncompleted", slog.String("todo_id", id))
	return t, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.Todo, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Todoの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTodoNotFoundError()
	}
	return t, nil
}
