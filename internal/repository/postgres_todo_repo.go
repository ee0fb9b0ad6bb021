package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/todoapp/internal/model"
)

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

const todoColumns = `id, title, description, completed, user_id, created_at, updated_at`

// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
func (r *PostgresTodoRepo) FindByID(ctx context.Context, id string) (*model.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1`,
		id,
	)
	todo, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo by ID: %w", err)
	}
	return todo, nil
}

// FindByUserID はユーザーが所有するTodoをcreated_at昇順で返す。
func (r *PostgresTodoRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos by user: %w", err)
	}
	defer rows.Close()

	todos := []*model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// Save はTodoをUPSERTする。
func (r *PostgresTodoRepo) Save(ctx context.Context, todo *model.Todo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, description, completed, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   completed = EXCLUDED.completed,
		   updated_at = EXCLUDED.updated_at`,
		todo.ID, todo.Title, nullString(todo.Description), todo.Completed, todo.UserID, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save todo: %w", err)
	}
	return nil
}

// Delete は指定IDのTodoを削除する。
func (r *PostgresTodoRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(s rowScanner) (*model.Todo, error) {
	var (
		todo        model.Todo
		description sql.NullString
	)
	if err := s.Scan(&todo.ID, &todo.Title, &description, &todo.Completed, &todo.UserID, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		v := description.String
		todo.Description = &v
	}
	return &todo, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
