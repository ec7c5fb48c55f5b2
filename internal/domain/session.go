package domain

import (
	"strings"
	"time"

	"github.com/dov-vai/PuzzApi/internal/errs"
)

type SessionID int64

// Session — запись о refresh-сессии пользователя.
// Сам refresh-токен не храним, только его SHA-256 хеш.
type Session struct {
	ID        SessionID
	UserID    UserID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	UserAgent *string
}

func NewSession(userID UserID, tokenHash string, expiresAt, now time.Time) (*Session, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return nil, errs.ErrEmptyTokenHash
	}
	if !expiresAt.After(now) {
		return nil, errs.ErrPastExpiry
	}

	return &Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Session) SetUserAgent(ua *string, now time.Time) {
	if ua != nil {
		trimmed := strings.TrimSpace(*ua)
		if trimmed == "" {
			ua = nil
		} else {
			ua = &trimmed
		}
	}
	s.UserAgent = ua
	s.UpdatedAt = now
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
