package service

import (
	"context"
	"io"
	"mime"

	"go.uber.org/zap"

	"CyMarker/internal/apperror"
	"CyMarker/internal/blob"
	"CyMarker/internal/model"
	"CyMarker/internal/realtime"
	"CyMarker/internal/repo"
)

// ImageService — изображения и их файлы.
type ImageService struct {
	repo     repo.ImageRepository
	blobs    blob.Store
	notifier Notifier
	logger   *zap.SugaredLogger
}

func NewImageService(r repo.ImageRepository, blobs blob.Store, n Notifier, logger *zap.SugaredLogger) *ImageService {
	return &ImageService{repo: r, blobs: blobs, notifier: n, logger: logger}
}

func (s *ImageService) Create(ctx context.Context, owner *model.User, extension string, x, y int) (*model.Image, error) {
	img := &model.Image{UserID: owner.ID, Extension: extension, X: x, Y: y}
	if err := s.repo.Create(ctx, img); err != nil {
		return nil, err
	}
	s.notifier.EmitSaved(realtime.Saved{Image: img})
	return img, nil
}

func (s *ImageService) List(ctx context.Context) ([]model.Image, error) {
	return s.repo.List(ctx)
}

func (s *ImageService) Get(ctx context.Context, id string) (*model.Image, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ImageService) UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Image, error) {
	img, err := s.repo.UpdatePosition(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !patch.Empty() {
		s.notifier.EmitSaved(realtime.Saved{Image: img})
	}
	return img, nil
}

// owned загружает изображение и проверяет, что его владелец — user.
func (s *ImageService) owned(ctx context.Context, user *model.User, id string) (*model.Image, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.UserID != user.ID {
		return nil, apperror.Forbidden("only the owner can modify this image")
	}
	return img, nil
}

// Delete удаляет изображение владельца. Маркеры не трогаются, файл удаляется
// по возможности.
func (s *ImageService) Delete(ctx context.Context, user *model.User, id string) error {
	img, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, img.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, img.FileName()); err != nil {
		s.logger.Warnw("blob delete failed", "image_id", img.ID, "error", err)
	}
	s.notifier.EmitRemoved(realtime.Removed{ImageID: img.ID}, "")
	return nil
}

// PutBlob сохраняет файл изображения как {id}.{ext} и возвращает имя.
func (s *ImageService) PutBlob(ctx context.Context, user *model.User, id string, r io.Reader, size int64) (string, error) {
	img, err := s.owned(ctx, user, id)
	if err != nil {
		return "", err
	}
	name := img.FileName()
	if err := s.blobs.Put(ctx, name, r, size, mime.TypeByExtension("."+img.Extension)); err != nil {
		return "", err
	}
	s.logger.Infow("image blob stored", "image_id", img.ID, "name", name)
	return name, nil
}

// OpenBlob открывает сохранённый файл по имени.
func (s *ImageService) OpenBlob(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.blobs.Open(ctx, name)
}
