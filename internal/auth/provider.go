// Package auth はメールアドレスとパスワードによるIdP（サインアップ、サインイン、トークン検証）を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/todoapp/internal/model"
	"github.com/hitoshi/todoapp/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 8

// ProviderConfig はIdPの設定。
type ProviderConfig struct {
	Secret     []byte        // トークン署名用の共有鍵
	TokenTTL   time.Duration // アクセストークンの有効期間
	BcryptCost int           // 0の場合はbcrypt.DefaultCost
}

// Provider はCredentialRepositoryを使うローカルIdP。
type Provider struct {
	creds repository.CredentialRepository
	cfg   ProviderConfig
	now   func() time.Time
}

// NewProvider はProviderを生成する。
func NewProvider(creds repository.CredentialRepository, cfg ProviderConfig) *Provider {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &Provider{creds: creds, cfg: cfg, now: time.Now}
}

// SignUp は認証情報を登録し、払い出したサブジェクトIDを返す。
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.NewValidationError("email is required")
	}
	if password == "" {
		return "", model.NewValidationError("password is required")
	}
	if len(password) < MinPasswordLength {
		return "", model.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &model.Credential{
		Subject:      uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.now(),
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrCredentialExists) {
			return "", model.NewUserAlreadyExistsError()
		}
		return "", fmt.Errorf("failed to store credential: %w", err)
	}

	slog.Info("credential registered", slog.String("subject", cred.Subject))
	return cred.Subject, nil
}

// SignIn はパスワードを検証し、アクセストークンを発行する。
// メールアドレスが未登録の場合もパスワード不一致の場合もInvalidCredentialsを返す。
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	cred, err := p.creds.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("failed to find credential: %w", err)
	}
	if cred == nil {
		return "", model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", model.NewInvalidCredentialsError()
	}

	token, err := p.issueToken(cred)
	if err != nil {
		return "", err
	}
	return token, nil
}
