package domain

import (
	"strings"
	"time"

	"github.com/dov-vai/PuzzApi/internal/errs"
)

type UserID int64

type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser ожидает уже посчитанный хеш пароля.
func NewUser(username, passwordHash string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errs.ErrInvalidUsername
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, errs.ErrEmptyPasswordHash
	}

	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return errs.ErrEmptyPasswordHash
	}
	u.PasswordHash = hash
	u.UpdatedAt = now

	return nil
}
