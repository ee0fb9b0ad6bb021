// Package user はユーザー管理のユースケースを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/todoapp/internal/metrics"
	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/repository"
)

// IdentityProvider は認証情報を管理する外部IdPのインターフェース。
type IdentityProvider interface {
	// SignUp は認証情報を登録し、IdPのサブジェクトIDを返す。
	SignUp(ctx context.Context, email, password string) (string, error)
	// SignIn は認証情報を検証し、アクセストークンを返す。
	SignIn(ctx context.Context, email, password string) (string, error)
}

// CreateInput はユーザー登録の入力。
type CreateInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateInput はユーザー更新の入力。nilまたは空文字のフィールドは変更しない。
type UpdateInput struct {
	ID   string
	Name *string
}

// AuthResult は認証結果。
type AuthResult struct {
	User  *model.User
	Token string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	idp      IdentityProvider
	metrics  metrics.MetricsCollector
	now      func() time.Time
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
func NewService(userRepo repository.UserRepository, idp IdentityProvider, opts ...Option) *Service {
	s := &Service{
		userRepo: userRepo,
		idp:      idp,
		metrics:  metrics.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser はIdPにサインアップしてからユーザーを保存する。
// 2段階の処理はアトミックではなく、保存に失敗してもIdP側の登録は取り消さない。
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserAlreadyExistsError()
	}

	subject, err := s.idp.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("IdPへの登録に失敗しました: %w", err)
	}

	u := model.NewUser(subject, in.Email, in.Name, s.now())
	if err := s.userRepo.Save(ctx, u); err != nil {
		slog.Error("ユーザーの保存に失敗しました。IdPの登録が残っています",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ユーザーの保存に失敗しました: %w", err)
	}

	s.metrics.RecordUserCreated()
	slog.Info("user created", slog.String("user_id", u.ID))
	return u, nil
}

// GetUser は指定IDのユーザーを返す。存在しない場合はnilを返す。
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// UpdateUser はユーザーの表示名を更新する。
func (s *Service) UpdateUser(ctx context.Context, in UpdateInput) (*model.User, error) {
	u, err := s.load(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != "" {
		u.UpdateName(*in.Name, s.now())
	}

	if err := s.userRepo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("ユーザーの保存に失敗しました: %w", err)
	}

	slog.Info("user updated", slog.String("user_id", u.ID))
	return u, nil
}

// DeleteUser はユーザーを削除する。所有するTodoやIdPの登録は削除しない。
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user deleted", slog.String("user_id", id))
	return nil
}

// AuthenticateUser はローカルに登録済みのユーザーをIdPで認証し、トークンを返す。
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		s.metrics.RecordAuthFailure()
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.idp.SignIn(ctx, email, password)
	if err != nil {
		s.metrics.RecordAuthFailure()
		return nil, fmt.Errorf("IdPでの認証に失敗しました: %w", err)
	}

	slog.Info("user authenticated", slog.String("user_id", u.ID))
	return &AuthResult{User: u, Token: token}, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}
