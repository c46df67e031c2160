package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"CyMarker/internal/blob"
	"CyMarker/internal/model"
	"CyMarker/internal/realtime"
	"CyMarker/internal/repo"
)

// мок для repo.UserRepository
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id string, cred model.Credential) error {
	return m.Called(ctx, id, cred).Error(0)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

// мок для repo.ImageRepository
type mockImageRepo struct{ mock.Mock }

func (m *mockImageRepo) Create(ctx context.Context, img *model.Image) error {
	return m.Called(ctx, img).Error(0)
}

func (m *mockImageRepo) GetByID(ctx context.Context, id string) (*model.Image, error) {
	args := m.Called(ctx, id)
	if i, ok := args.Get(0).(*model.Image); ok {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockImageRepo) List(ctx context.Context) ([]model.Image, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Image)
	return list, args.Error(1)
}

func (m *mockImageRepo) UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Image, error) {
	args := m.Called(ctx, id, patch)
	if i, ok := args.Get(0).(*model.Image); ok {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockImageRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var _ repo.ImageRepository = (*mockImageRepo)(nil)

// мок для repo.MarkerRepository
type mockMarkerRepo struct{ mock.Mock }

func (m *mockMarkerRepo) CreateMarker(ctx context.Context, mk *model.Marker) error {
	return m.Called(ctx, mk).Error(0)
}

func (m *mockMarkerRepo) CreateMarkerWithComment(ctx context.Context, mk *model.Marker, c *model.Comment) error {
	return m.Called(ctx, mk, c).Error(0)
}

func (m *mockMarkerRepo) GetMarker(ctx context.Context, id string) (*model.Marker, error) {
	args := m.Called(ctx, id)
	if mk, ok := args.Get(0).(*model.Marker); ok {
		return mk, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMarkerRepo) ListMarkers(ctx context.Context) ([]model.Marker, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Marker)
	return list, args.Error(1)
}

func (m *mockMarkerRepo) UpdatePosition(ctx context.Context, id string, patch model.PositionPatch) (*model.Marker, error) {
	args := m.Called(ctx, id, patch)
	if mk, ok := args.Get(0).(*model.Marker); ok {
		return mk, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMarkerRepo) DeleteMarker(ctx context.Context, id string) ([]model.Comment, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]model.Comment)
	return list, args.Error(1)
}

func (m *mockMarkerRepo) CreateComment(ctx context.Context, c *model.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockMarkerRepo) GetComment(ctx context.Context, markerID, commentID string) (*model.Comment, error) {
	args := m.Called(ctx, markerID, commentID)
	if c, ok := args.Get(0).(*model.Comment); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMarkerRepo) ListComments(ctx context.Context, markerID string) ([]model.Comment, error) {
	args := m.Called(ctx, markerID)
	list, _ := args.Get(0).([]model.Comment)
	return list, args.Error(1)
}

func (m *mockMarkerRepo) DeleteComment(ctx context.Context, markerID, commentID string) (bool, error) {
	args := m.Called(ctx, markerID, commentID)
	return args.Bool(0), args.Error(1)
}

var _ repo.MarkerRepository = (*mockMarkerRepo)(nil)

// мок для blob.Store
type mockBlobStore struct{ mock.Mock }

func (m *mockBlobStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, name, r, size, contentType).Error(0)
}

func (m *mockBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, name)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

var _ blob.Store = (*mockBlobStore)(nil)

// recordingNotifier запоминает события по порядку.
type recordingNotifier struct {
	saved   []realtime.Saved
	removed []realtime.Removed
	topics  []string
}

func (n *recordingNotifier) EmitSaved(s realtime.Saved) {
	n.saved = append(n.saved, s)
}

func (n *recordingNotifier) EmitRemoved(r realtime.Removed, markerID string) {
	n.removed = append(n.removed, r)
	n.topics = append(n.topics, markerID)
}
