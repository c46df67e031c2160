package service

import (
	"context"

	"go.uber.org/zap"

	"CyMarker/internal/model"
	"CyMarker/internal/realtime"
	"CyMarker/internal/repo"
)

// MarkerService — маркеры и комментарии. События отправляются после фиксации
// транзакции репозитория.
type MarkerService struct {
	repo     repo.MarkerRepository
	notifier Notifier
	logger   *zap.SugaredLogger
}

func NewMarkerService(r repo.MarkerRepository, n Notifier, logger *zap.SugaredLogger) *MarkerService {
	return &MarkerService{repo: r, notifier: n, logger: logger}
}

// Create создаёт маркер вместе с первым комментарием автора.
func (s *MarkerService) Create(ctx context.Context, author *model.User, imageID *string, x, y int, text string) (*model.Marker, *model.Comment, error) {
	m := &model.Marker{ImageID: imageID, X: x, Y: y}
	c := &model.Comment{UserID: author.ID, Text: text}
	if err := s.repo.CreateMarkerWithComment(ctx, m, c); err != nil {
		return nil, nil, err
	}
	s.notifier.EmitSaved(realtime.Saved{Marker: m})
	s.notifier.EmitSaved(realtime.Saved{Comment: c})
	return m, c, nil
}

func (s *MarkerService) List(ctx context.Context) ([]model.Marker, error) {
	return s.repo.ListMarkers(ctx)
}

func (s *MarkerService) Get(ctx context.Context, id string) (*model.Marker, error) {
	return s.repo.GetMarker(ctx, id)
}

func (s *MarkerService) UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Marker, error) {
	m, err := s.repo.UpdatePosition(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !patch.Empty() {
		s.notifier.EmitSaved(realtime.Saved{Marker: m})
	}
	return m, nil
}

// Delete удаляет маркер с комментариями. События removed уходят по каждому
// комментарию, затем по маркеру.
func (s *MarkerService) Delete(ctx context.Context, id string) error {
	comments, err := s.repo.DeleteMarker(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range comments {
		s.notifier.EmitRemoved(realtime.Removed{CommentID: c.ID}, id)
	}
	s.notifier.EmitRemoved(realtime.Removed{MarkerID: id}, "")
	s.logger.Infow("marker deleted", "marker_id", id, "comments", len(comments))
	return nil
}

// ListComments — комментарии существующего маркера от старых к новым.
func (s *MarkerService) ListComments(ctx context.Context, markerID string) ([]model.Comment, error) {
	if _, err := s.repo.GetMarker(ctx, markerID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, markerID)
}

func (s *MarkerService) AddComment(ctx context.Context, author *model.User, markerID, text string) (*model.Comment, error) {
	if _, err := s.repo.GetMarker(ctx, markerID); err != nil {
		return nil, err
	}
	c := &model.Comment{MarkerID: markerID, UserID: author.ID, Text: text}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	s.notifier.EmitSaved(realtime.Saved{Comment: c})
	return c, nil
}

// DeleteComment удаляет комментарий; вместе с последним удаляется и маркер.
func (s *MarkerService) DeleteComment(ctx context.Context, markerID, commentID string) (markerRemoved bool, err error) {
	markerRemoved, err = s.repo.DeleteComment(ctx, markerID, commentID)
	if err != nil {
		return false, err
	}
	s.notifier.EmitRemoved(realtime.Removed{CommentID: commentID}, markerID)
	if markerRemoved {
		s.notifier.EmitRemoved(realtime.Removed{MarkerID: markerID}, "")
		s.logger.Infow("marker removed with its last comment", "marker_id", markerID)
	}
	return markerRemoved, nil
}
