// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDは外部IdPのサブジェクトIDと同じ値で、自前では採番しない。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser はIdPから払い出されたIDでUserを生成する。
// メールアドレスの一意性はユースケース側で保証する。
func NewUser(id, email, name string, now time.Time) *User {
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateName は表示名を更新する。
func (u *User) UpdateName(name string, now time.Time) {
	u.Name = name
	u.UpdatedAt = now
}

// Clone はUserのコピーを返す。
func (u *User) Clone() *User {
	c := *u
	return &c
}

// Credential はIdPが保持する認証情報を表す。
// Subjectは払い出したユーザーID、PasswordHashはbcryptハッシュ。
type Credential struct {
	Subject      string    `json:"subject"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}
