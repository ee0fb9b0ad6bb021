package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/todoapp/internal/model"
)

const tokenUseAccess = "access"

// ErrInvalidToken はトークンの署名、形式、有効期限のいずれかが不正な場合に返される。
var ErrInvalidToken = errors.New("invalid token")

// Claims はアクセストークンのクレーム。SubjectがユーザーIDになる。
type Claims struct {
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

func (p *Provider) issueToken(cred *model.Credential) (string, error) {
	now := p.now()
	claims := Claims{
		Email:    cred.Email,
		TokenUse: tokenUseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken はアクセストークンを検証し、クレームを返す。
func (p *Provider) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenUse != tokenUseAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
