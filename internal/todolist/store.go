package todolist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// writeQueueSize は書き戻し待ちキューの長さ。
const writeQueueSize = 64

var (
	// ErrInvalidTitle はタイトルが空または長すぎる場合に返される。
	ErrInvalidTitle = fmt.Errorf("title must be non-empty and at most %d characters", MaxTitleLength)
	// ErrInvalidPriority は優先度が定義外の場合に返される。
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
	// ErrIDRequired は対象IDが指定されていない場合に返される。
	ErrIDRequired = errors.New("todo id is required")
	// ErrNotFound は対象のItemがストレージに存在しない場合に返される。
	ErrNotFound = errors.New("todo not found")
)

// Storage はStoreが使う永続化先。
// 実装は失敗をエラーとして返さず、ログに記録して安全な既定値を返す。
type Storage interface {
	GetAll(ctx context.Context) []Item
	GetByID(ctx context.Context, id string) *Item
	Save(ctx context.Context, item Item) Item
	SaveAll(ctx context.Context, items []Item) []Item
	Remove(ctx context.Context, id string) bool
	RemoveCompleted(ctx context.Context) bool
}

// Store はTodo一覧の状態を保持し、変更をストレージへ書き戻す。
// 状態の更新はDispatchで同期的に行い、書き戻しは単一のバックグラウンドgoroutineが
// Dispatchの順序どおりに非同期で行う。
type Store struct {
	storage Storage
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.RWMutex
	state  State
	closed bool

	seed     []Item
	initOnce sync.Once
	initErr  error

	writes    chan []Item
	done      chan struct{}
	closeOnce sync.Once
}

// Option はStoreの生成オプション。
type Option func(*Store)

// WithSeed は初期状態を与える。空でなければInitでの読み込みを行わず、
// 代わりにこの一覧をストレージへ保存する。
func WithSeed(items []Item) Option {
	return func(s *Store) { s.seed = slices.Clone(items) }
}

// WithClock は時刻の取得元を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger はログ出力先を設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore はStoreを生成し、書き戻し用のgoroutineを起動する。
// 使い終わったらCloseを呼ぶ。
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
		logger:  slog.Default(),
		writes:  make(chan []Item, writeQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Todos = slices.Clone(s.seed)

	go s.writeLoop()
	return s
}

func (s *Store) writeLoop() {
	defer close(s.done)
	for items := range s.writes {
		s.storage.SaveAll(context.Background(), items)
	}
}

// Init はストレージから一覧を1回だけ読み込む。2回目以降の呼び出しは何もしない。
// 初期状態が与えられている場合は読み込まず、その一覧をストレージへ保存する。
func (s *Store) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		if len(s.seed) > 0 {
			s.storage.SaveAll(ctx, slices.Clone(s.seed))
			return
		}

		if err := ctx.Err(); err != nil {
			s.Dispatch(SetError(err))
			s.initErr = err
			return
		}

		s.Dispatch(SetLoading(true))
		items := s.storage.GetAll(ctx)
		s.Dispatch(Load(items))
		s.logger.Debug("todos loaded", slog.Int("count", len(items)))
	})
	return s.initErr
}

// Dispatch はアクションで状態を更新する。
// 一覧が変わった場合はその内容の書き戻しをキューに積む。読み込みによる変更は書き戻さない。
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, action)
	if !action.changesTodos() || action.Kind == ActionLoad {
		return
	}
	if s.closed {
		s.logger.Warn("store is closed; change was not persisted", slog.String("action", string(action.Kind)))
		return
	}
	s.writes <- slices.Clone(s.state.Todos)
}

// Close は書き戻し待ちのキューを処理し終えるまで待つ。
// ctxが先に終了した場合はそのエラーを返す。
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.writes)
		s.mu.Unlock()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail はエラーを状態に記録して返す。
func (s *Store) fail(err error) error {
	s.Dispatch(SetError(err))
	return err
}

// AddTodo はItemを作成してストレージに保存し、一覧へ追加する。
func (s *Store) AddTodo(ctx context.Context, in CreateInput) (Item, error) {
	if !IsValidTitle(in.Title) {
		return Item{}, s.fail(ErrInvalidTitle)
	}
	if in.Priority != "" && !IsValidPriority(in.Priority) {
		return Item{}, s.fail(ErrInvalidPriority)
	}

	saved := s.storage.Save(ctx, NewItem(in, s.now()))
	s.Dispatch(Add(saved))
	return saved, nil
}

// UpdateTodo はストレージ上のItemへ入力を反映して保存し、一覧にも反映する。
func (s *Store) UpdateTodo(ctx context.Context, in UpdateInput) (Item, error) {
	if in.ID == "" {
		return Item{}, s.fail(ErrIDRequired)
	}
	if in.Title != nil && !IsValidTitle(*in.Title) {
		return Item{}, s.fail(ErrInvalidTitle)
	}
	if in.Priority != nil && !IsValidPriority(*in.Priority) {
		return Item{}, s.fail(ErrInvalidPriority)
	}

	existing := s.storage.GetByID(ctx, in.ID)
	if existing == nil {
		return Item{}, s.fail(fmt.Errorf("%w: %s", ErrNotFound, in.ID))
	}

	now := s.now()
	saved := s.storage.Save(ctx, existing.merged(in, now))
	s.Dispatch(Update(UpdateInput{
		ID:       saved.ID,
		Title:    &saved.Title,
		Priority: &saved.Priority,
		Status:   &saved.Status,
	}, saved.UpdatedAt))
	return saved, nil
}

// ToggleTodoStatus はItemの状態を反転して保存し、一覧にも反映する。
func (s *Store) ToggleTodoStatus(ctx context.Context, id string) (Item, error) {
	if id == "" {
		return Item{}, s.fail(ErrIDRequired)
	}

	existing := s.storage.GetByID(ctx, id)
	if existing == nil {
		return Item{}, s.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	now := s.now()
	saved := s.storage.Save(ctx, existing.toggled(now))
	s.Dispatch(ToggleStatus(id, now))
	return saved, nil
}

// DeleteTodo はItemをストレージから削除し、削除できた場合は一覧からも取り除く。
func (s *Store) DeleteTodo(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, s.fail(ErrIDRequired)
	}

	removed := s.storage.Remove(ctx, id)
	if removed {
		s.Dispatch(Delete(id))
	}
	return removed, nil
}

// ClearCompletedTodos は完了済みのItemをストレージと一覧から取り除く。
func (s *Store) ClearCompletedTodos(ctx context.Context) bool {
	ok := s.storage.RemoveCompleted(ctx)
	if ok {
		s.Dispatch(ClearCompleted())
	}
	return ok
}

// Todos は現在の一覧のコピーを返す。
func (s *Store) Todos() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Todos)
}

// Active は未完了のItemを返す。
func (s *Store) Active() []Item {
	return Active(s.Todos())
}

// Completed は完了済みのItemを返す。
func (s *Store) Completed() []Item {
	return Completed(s.Todos())
}

// ByPriority は指定優先度のItemを返す。
func (s *Store) ByPriority(p Priority) []Item {
	return FilterByPriority(s.Todos(), p)
}

// Loading は読み込み中かどうかを返す。
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// Err は最後に記録されたエラーを返す。
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Err
}
