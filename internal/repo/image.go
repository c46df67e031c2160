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

// ImageRepository — доступ к изображениям.
type ImageRepository interface {
	// Create проверяет владельца и расширение и вставляет изображение.
	Create(ctx context.Context, img *model.Image) error
	GetByID(ctx context.Context, id string) (*model.Image, error)
	List(ctx context.Context) ([]model.Image, error)
	// UpdatePosition применяет только заданные поля патча.
	UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Image, error)
	// Delete удаляет изображение. Маркеры сохраняют свою ссылку imageId.
	Delete(ctx context.Context, id string) error
}

type imageRepo struct {
	db *gorm.DB
}

// NewImageRepository создаёт реализацию репозитория изображений.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Create(ctx context.Context, img *model.Image) error {
	if !model.ValidExtension(img.Extension) {
		return apperror.Validation("extension", fmt.Sprintf("extension must be one of %v", model.Extensions))
	}
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &model.User{}, img.UserID)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return apperror.Validation("userId", "user does not exist")
		}
		if err := tx.Create(img).Error; err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		return nil
	})
}

func (r *imageRepo) GetByID(ctx context.Context, id string) (*model.Image, error) {
	return getImage(r.db.WithContext(ctx), id)
}

func getImage(tx *gorm.DB, id string) (*model.Image, error) {
	if !validID(id) {
		return nil, apperror.NotFound("image", id)
	}
	var img model.Image
	err := tx.Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("image", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return &img, nil
}

func (r *imageRepo) List(ctx context.Context) ([]model.Image, error) {
	var list []model.Image
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return list, nil
}

func (r *imageRepo) UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Image, error) {
	var out *model.Image
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, err := getImage(tx, id)
		if err != nil {
			return err
		}
		if !patch.Empty() {
			if err := tx.Model(img).Updates(patch.Updates()).Error; err != nil {
				return fmt.Errorf("update image: %w", err)
			}
			if img, err = getImage(tx, id); err != nil {
				return err
			}
		}
		out = img
		return nil
	})
	return out, err
}

func (r *imageRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperror.NotFound("image", id)
	}
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Image{})
	if tx.Error != nil {
		return fmt.Errorf("delete image: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperror.NotFound("image", id)
	}
	return nil
}
