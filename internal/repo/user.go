package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"CyMarker/internal/apperror"
	"CyMarker/internal/model"
)

// UserRepository — доступ к пользователям.
type UserRepository interface {
	// CreateUser вставляет пользователя. Дубликат username даёт apperror.ErrDuplicateKey
	// за счёт уникального индекса, без предварительной проверки.
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdatePassword заменяет запись пароля (и тем самым секрет токенов).
	UpdatePassword(ctx context.Context, id string, cred model.Credential) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository создаёт реализацию репозитория пользователей.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.DuplicateKey("user", "username", err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, apperror.NotFound("user", id)
	}
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepo) first(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id string, cred model.Credential) error {
	if !validID(id) {
		return apperror.NotFound("user", id)
	}
	tx := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_salt":      cred.Salt,
		"password_key":       cred.DerivedKey,
		"password_hashed_at": cred.HashedAt,
	})
	if tx.Error != nil {
		return fmt.Errorf("update password: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
