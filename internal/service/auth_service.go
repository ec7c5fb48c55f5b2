package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dov-vai/PuzzApi/internal/domain"
	"github.com/dov-vai/PuzzApi/internal/errs"
	"github.com/dov-vai/PuzzApi/internal/repository"
	"github.com/dov-vai/PuzzApi/internal/security"
)

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	UserID       domain.UserID
	AccessToken  string
	RefreshToken string
}

// Метаданные сессии из запроса
type LoginMeta struct {
	UserAgent *string
}

// AuthService — коллаборатор ядра: регистрация, вход, refresh-ротация и
// проверка access-токена для апгрейда WS. Комнатами не занимается.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwt        *security.Signer
	refreshTTL time.Duration
	passPolicy security.PasswordPolicy
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwt *security.Signer,
	refreshTTL time.Duration,
	passPolicy security.PasswordPolicy,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		refreshTTL: refreshTTL,
		passPolicy: passPolicy,
		now:        now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("users.ExistsByUsername: %w", err)
	}
	if exists {
		return nil, repository.ErrAlreadyExists
	}

	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	u, err := domain.NewUser(username, hash, s.now())
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	u.ID = id

	slog.Info("auth: user registered", "user_id", int64(id))

	return u, nil
}

// Login аутентифицирует по username+пароль и выпускает пару токенов.
func (s *AuthService) Login(ctx context.Context, username, password string, meta *LoginMeta) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("users.GetByUsername: %w", err)
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	access, refresh, err := s.issueTokens(ctx, u.ID, meta, nil)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh по refresh-токену выдаёт новую пару; старую запись удаляет.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta *LoginMeta) (*RefreshResult, error) {
	hash := security.SHA256Hex(refreshToken)
	sess, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sessions.GetByTokenHash: %w", err)
	}

	now := s.now()
	if sess.IsExpired(now) {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return nil, errs.ErrSessionExpired
	}

	access, newRefresh, err := s.issueTokens(ctx, sess.UserID, meta, &sess.ID)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		UserID:       sess.UserID,
		AccessToken:  access,
		RefreshToken: newRefresh,
	}, nil
}

// Logout удаляет refresh-сессию; неизвестный токен не считается ошибкой.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	hash := security.SHA256Hex(refreshToken)
	sess, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("sessions.GetByTokenHash: %w", err)
	}

	return s.sessions.DeleteByID(ctx, sess.ID)
}

// ValidateAccessToken проверяет access-JWT; используется при апгрейде WS.
func (s *AuthService) ValidateAccessToken(token string) error {
	_, err := s.jwt.ParseAndValidate(token)
	return err
}

func (s *AuthService) AccessTTL() time.Duration  { return s.jwt.TTL() }
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

// issueTokens подписывает access и создаёт refresh-сессию.
// Если oldSessionID != nil — сначала удаляет старую запись.
func (s *AuthService) issueTokens(ctx context.Context, userID domain.UserID, meta *LoginMeta, oldSessionID *domain.SessionID) (access, refresh string, err error) {
	now := s.now()

	access, err = s.jwt.SignAccessToken(userID, now)
	if err != nil {
		return "", "", fmt.Errorf("jwt.SignAccessToken: %w", err)
	}

	refresh, err = security.RandomStringURLSafe(32)
	if err != nil {
		return "", "", err
	}

	sess, err := domain.NewSession(userID, security.SHA256Hex(refresh), now.Add(s.refreshTTL), now)
	if err != nil {
		return "", "", err
	}
	if meta != nil && meta.UserAgent != nil {
		sess.SetUserAgent(meta.UserAgent, now)
	}

	if oldSessionID != nil {
		_ = s.sessions.DeleteByID(ctx, *oldSessionID)
	}

	if _, err := s.sessions.Create(ctx, sess); err != nil {
		return "", "", fmt.Errorf("sessions.Create: %w", err)
	}

	return access, refresh, nil
}
