package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"CyMarker/internal/apperror"
	"CyMarker/internal/auth"
	"CyMarker/internal/metrics"
	"CyMarker/internal/model"
	"CyMarker/internal/repo"
)

// errBadCredentials — общий ответ на неизвестный логин и неверный пароль.
var errBadCredentials = apperror.Auth("username or password is incorrect")

// UserService — регистрация, вход и проверка сессий.
type UserService struct {
	repo   repo.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenCodec
	logger *zap.SugaredLogger
}

func NewUserService(r repo.UserRepository, h *auth.PasswordHasher, t *auth.TokenCodec, logger *zap.SugaredLogger) *UserService {
	return &UserService{repo: r, hasher: h, tokens: t, logger: logger}
}

// SignUp создаёт пользователя. Занятый username даёт apperror.ErrDuplicateKey.
func (s *UserService) SignUp(ctx context.Context, name, username, password string) (*model.User, error) {
	cred, err := s.hasher.Derive(password, nil)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, &model.User{Name: name, Username: username, Password: cred})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("user signed up", "user_id", user.ID)
	return user, nil
}

// SignIn проверяет пароль и выпускает токен, подписанный текущим ключом пользователя.
func (s *UserService) SignIn(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		metrics.RecordAuth("signin", false)
		return nil, "", errBadCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !s.hasher.Verify(password, user.Password) {
		metrics.RecordAuth("signin", false)
		s.logger.Infow("sign-in rejected", "user_id", user.ID)
		return nil, "", errBadCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Password.DerivedKey)
	if err != nil {
		return nil, "", err
	}
	metrics.RecordAuth("signin", true)
	return user, token, nil
}

// Authenticate возвращает пользователя по токену или false. Ошибки не раскрываются.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, bool) {
	user, ok := s.tokens.Validate(ctx, token, s.repo)
	metrics.RecordAuth("token", ok)
	return user, ok
}

// ChangePassword сбрасывает запись пароля. Старые токены перестают проходить проверку,
// так как подписаны прежним ключом.
func (s *UserService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) (*model.User, string, error) {
	if !s.hasher.Verify(oldPassword, user.Password) {
		return nil, "", errBadCredentials
	}
	cred, err := s.hasher.Derive(newPassword, nil)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, cred); err != nil {
		return nil, "", err
	}

	updated, err := s.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(updated.ID, updated.Username, updated.Password.DerivedKey)
	if err != nil {
		return nil, "", err
	}
	s.logger.Infow("password changed", "user_id", updated.ID)
	return updated, token, nil
}
