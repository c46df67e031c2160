package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CyMarker/internal/apperror"
	"CyMarker/internal/model"
)

// MarkerRepository — доступ к маркерам и их комментариям.
//
// Инвариант: у маркера всегда есть хотя бы один комментарий. Удаление маркера
// сначала удаляет его комментарии, удаление последнего комментария удаляет маркер.
// Обе операции выполняются в одной транзакции, строка маркера блокируется.
type MarkerRepository interface {
	// CreateMarker вставляет только маркер. Вызывающий обязан сразу добавить
	// комментарий; обычно нужен CreateMarkerWithComment.
	CreateMarker(ctx context.Context, m *model.Marker) error
	// CreateMarkerWithComment атомарно создаёт маркер и его первый комментарий.
	CreateMarkerWithComment(ctx context.Context, m *model.Marker, c *model.Comment) error
	GetMarker(ctx context.Context, id string) (*model.Marker, error)
	ListMarkers(ctx context.Context) ([]model.Marker, error)
	UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Marker, error)
	// DeleteMarker удаляет комментарии маркера, затем сам маркер.
	// Возвращает удалённые комментарии.
	DeleteMarker(ctx context.Context, id string) ([]model.Comment, error)

	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, markerID, commentID string) (*model.Comment, error)
	// ListComments — комментарии маркера от старых к новым.
	ListComments(ctx context.Context, markerID string) ([]model.Comment, error)
	// DeleteComment удаляет комментарий и, если он был последним, маркер.
	DeleteComment(ctx context.Context, markerID, commentID string) (markerRemoved bool, err error)
}

type markerRepo struct {
	db *gorm.DB
}

// NewMarkerRepository создаёт реализацию репозитория маркеров.
func NewMarkerRepository(db *gorm.DB) MarkerRepository {
	return &markerRepo{db: db}
}

func validatePosition(x, y int) error {
	if x < 0 {
		return apperror.Validation("x", "x must be >= 0")
	}
	if y < 0 {
		return apperror.Validation("y", "y must be >= 0")
	}
	return nil
}

func createMarker(tx *gorm.DB, m *model.Marker) error {
	if err := validatePosition(m.X, m.Y); err != nil {
		return err
	}
	if m.ImageID != nil {
		ok, err := exists(tx, &model.Image{}, *m.ImageID)
		if err != nil {
			return fmt.Errorf("check image: %w", err)
		}
		if !ok {
			return apperror.Validation("imageId", "image does not exist")
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := tx.Create(m).Error; err != nil {
		return fmt.Errorf("create marker: %w", err)
	}
	return nil
}

// createComment проверяет ссылки комментария. Маркер должен быть уже заблокирован
// или создан в той же транзакции.
func createComment(tx *gorm.DB, c *model.Comment) error {
	if strings.TrimSpace(c.Text) == "" {
		return apperror.Validation("text", "text must not be empty")
	}
	ok, err := exists(tx, &model.User{}, c.UserID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return apperror.Validation("userId", "user does not exist")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := tx.Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *markerRepo) CreateMarker(ctx context.Context, m *model.Marker) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createMarker(tx, m)
	})
}

func (r *markerRepo) CreateMarkerWithComment(ctx context.Context, m *model.Marker, c *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createMarker(tx, m); err != nil {
			return err
		}
		c.MarkerID = m.ID
		return createComment(tx, c)
	})
}

func (r *markerRepo) GetMarker(ctx context.Context, id string) (*model.Marker, error) {
	return getMarker(r.db.WithContext(ctx), id, false)
}

// getMarker читает маркер; forUpdate блокирует строку до конца транзакции
// (SQLite игнорирует FOR UPDATE, там писатель и так один).
func getMarker(tx *gorm.DB, id string, forUpdate bool) (*model.Marker, error) {
	if !validID(id) {
		return nil, apperror.NotFound("marker", id)
	}
	q := tx
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m model.Marker
	err := q.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("marker", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get marker: %w", err)
	}
	return &m, nil
}

func (r *markerRepo) ListMarkers(ctx context.Context) ([]model.Marker, error) {
	var list []model.Marker
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	return list, nil
}

func (r *markerRepo) UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Marker, error) {
	var out *model.Marker
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := getMarker(tx, id, true)
		if err != nil {
			return err
		}
		if patch.Empty() {
			out = m
			return nil
		}
		x, y := m.X, m.Y
		if patch.X != nil {
			x = *patch.X
		}
		if patch.Y != nil {
			y = *patch.Y
		}
		if err := validatePosition(x, y); err != nil {
			return err
		}
		if err := tx.Model(m).Updates(patch.Updates()).Error; err != nil {
			return fmt.Errorf("update marker: %w", err)
		}
		out, err = getMarker(tx, id, false)
		return err
	})
	return out, err
}

func (r *markerRepo) DeleteMarker(ctx context.Context, id string) ([]model.Comment, error) {
	var removed []model.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getMarker(tx, id, true); err != nil {
			return err
		}
		var err error
		removed, err = deleteMarkerTx(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// deleteMarkerTx удаляет все комментарии маркера (их может не быть), затем маркер.
func deleteMarkerTx(tx *gorm.DB, id string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := tx.Where("marker_id = ?", id).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("find marker comments: %w", err)
	}
	if err := tx.Where("marker_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
		return nil, fmt.Errorf("delete marker comments: %w", err)
	}
	if err := tx.Where("id = ?", id).Delete(&model.Marker{}).Error; err != nil {
		return nil, fmt.Errorf("delete marker: %w", err)
	}
	return comments, nil
}

func (r *markerRepo) CreateComment(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// блокировка не даёт параллельному удалению последнего комментария
		// убрать маркер между проверкой и вставкой
		if _, err := getMarker(tx, c.MarkerID, true); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.Validation("markerId", "marker does not exist")
			}
			return err
		}
		return createComment(tx, c)
	})
}

func (r *markerRepo) GetComment(ctx context.Context, markerID, commentID string) (*model.Comment, error) {
	return getComment(r.db.WithContext(ctx), markerID, commentID)
}

func getComment(tx *gorm.DB, markerID, commentID string) (*model.Comment, error) {
	if !validID(markerID) || !validID(commentID) {
		return nil, apperror.NotFound("comment", commentID)
	}
	var c model.Comment
	err := tx.Where("id = ? AND marker_id = ?", commentID, markerID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("comment", commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (r *markerRepo) ListComments(ctx context.Context, markerID string) ([]model.Comment, error) {
	if !validID(markerID) {
		return []model.Comment{}, nil
	}
	var list []model.Comment
	err := r.db.WithContext(ctx).
		Where("marker_id = ?", markerID).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return list, nil
}

func (r *markerRepo) DeleteComment(ctx context.Context, markerID, commentID string) (bool, error) {
	markerRemoved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getMarker(tx, markerID, true); err != nil {
			return err
		}
		if _, err := getComment(tx, markerID, commentID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", commentID).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}

		var left int64
		if err := tx.Model(&model.Comment{}).Where("marker_id = ?", markerID).Count(&left).Error; err != nil {
			return fmt.Errorf("count comments: %w", err)
		}
		if left > 0 {
			return nil
		}
		if _, err := deleteMarkerTx(tx, markerID); err != nil {
			return err
		}
		markerRemoved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return markerRemoved, nil
}
