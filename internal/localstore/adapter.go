package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hitoshi/todoapp/internal/todolist"
)

// DefaultKey はTodo一覧を保存する既定のキー。
const DefaultKey = "vibecoding-demo-todos"

// Adapter はKVの1つのキーにTodo一覧を保存するストレージアダプター。
// 失敗はエラーとして返さず、ログに記録して安全な既定値を返す。
type Adapter struct {
	kv     KV
	key    string
	logger *slog.Logger
}

// Option はAdapterの生成オプション。
type Option func(*Adapter)

// WithKey は保存先のキーを設定する。
func WithKey(key string) Option {
	return func(a *Adapter) { a.key = key }
}

// WithLogger はログ出力先を設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// New はAdapterを生成する。
func New(kv KV, opts ...Option) *Adapter {
	a := &Adapter{
		kv:     kv,
		key:    DefaultKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetAll は保存済みの一覧を返す。値がない、または壊れている場合は空の一覧を返す。
// 作成日時と更新日時はtime.Timeとして復元される。
func (a *Adapter) GetAll(ctx context.Context) []todolist.Item {
	items, err := a.load(ctx)
	if err != nil {
		a.logger.Error("failed to load todos from local store",
			slog.String("key", a.key),
			slog.String("error", err.Error()),
		)
		return []todolist.Item{}
	}
	return items
}

// GetByID は指定IDのItemを返す。見つからない場合はnilを返す。
func (a *Adapter) GetByID(ctx context.Context, id string) *todolist.Item {
	for _, it := range a.GetAll(ctx) {
		if it.ID == id {
			found := it
			return &found
		}
	}
	return nil
}

// Save はItemを保存する。同じIDがあれば置き換え、なければ末尾に追加する。
// 保存に失敗しても引数のItemを返す。
func (a *Adapter) Save(ctx context.Context, item todolist.Item) todolist.Item {
	items, err := a.load(ctx)
	if err != nil {
		a.logError("failed to save todo", err, slog.String("todo_id", item.ID))
		return item
	}

	idx := slices.IndexFunc(items, func(it todolist.Item) bool { return it.ID == item.ID })
	if idx >= 0 {
		items[idx] = item
	} else {
		items = append(items, item)
	}

	if err := a.store(ctx, items); err != nil {
		a.logError("failed to save todo", err, slog.String("todo_id", item.ID))
	}
	return item
}

// SaveAll は一覧全体を上書き保存する。保存に失敗しても引数の一覧を返す。
func (a *Adapter) SaveAll(ctx context.Context, items []todolist.Item) []todolist.Item {
	if err := a.store(ctx, items); err != nil {
		a.logError("failed to save todos", err, slog.Int("count", len(items)))
	}
	return items
}

// Remove は指定IDのItemを削除する。削除したものがあればtrueを返す。
func (a *Adapter) Remove(ctx context.Context, id string) bool {
	items, err := a.load(ctx)
	if err != nil {
		a.logError("failed to remove todo", err, slog.String("todo_id", id))
		return false
	}

	kept := slices.DeleteFunc(items, func(it todolist.Item) bool { return it.ID == id })
	if len(kept) == len(items) {
		return false
	}
	if err := a.store(ctx, kept); err != nil {
		a.logError("failed to remove todo", err, slog.String("todo_id", id))
		return false
	}
	return true
}

// RemoveAll はすべてのItemを削除する。
func (a *Adapter) RemoveAll(ctx context.Context) bool {
	if err := a.store(ctx, []todolist.Item{}); err != nil {
		a.logError("failed to remove all todos", err)
		return false
	}
	return true
}

// RemoveCompleted は完了済みのItemを削除する。
func (a *Adapter) RemoveCompleted(ctx context.Context) bool {
	items, err := a.load(ctx)
	if err != nil {
		a.logError("failed to remove completed todos", err)
		return false
	}

	kept := todolist.NotCompleted(items)
	if kept == nil {
		kept = []todolist.Item{}
	}
	if err := a.store(ctx, kept); err != nil {
		a.logError("failed to remove completed todos", err)
		return false
	}
	return true
}

// load は保存済みの一覧を読み込む。値がない場合は空の一覧を返す。
func (a *Adapter) load(ctx context.Context) ([]todolist.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, ok, err := a.kv.GetItem(a.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", a.key, err)
	}
	if !ok || raw == "" {
		return []todolist.Item{}, nil
	}

	var items []todolist.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}
	if items == nil {
		items = []todolist.Item{}
	}
	return items, nil
}

func (a *Adapter) store(ctx context.Context, items []todolist.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []todolist.Item{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode todos: %w", err)
	}
	if err := a.kv.SetItem(a.key, string(data)); err != nil {
		return fmt.Errorf("failed to write key %q: %w", a.key, err)
	}
	return nil
}

func (a *Adapter) logError(msg string, err error, attrs ...any) {
	args := append([]any{slog.String("key", a.key), slog.String("error", err.Error())}, attrs...)
	a.logger.Error(msg, args...)
}

var _ todolist.Storage = (*Adapter)(nil)
