package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CyMarker/internal/apperror"
	"CyMarker/internal/auth"
	"CyMarker/internal/model"
)

const testUserID = "3f2b0c8e-6a53-4c1e-9d2a-5b7f0e1a2c3d"

func newTestUserService(r *mockUserRepo) (*UserService, *auth.PasswordHasher) {
	h := auth.NewPasswordHasherWithCost(16)
	codec := auth.NewTokenCodec("cymarker", zap.NewNop().Sugar())
	return NewUserService(r, h, codec, zap.NewNop().Sugar()), h
}

func storedUser(t *testing.T, h *auth.PasswordHasher, password string) *model.User {
	t.Helper()
	cred, err := h.Derive(password, nil)
	require.NoError(t, err)
	return &model.User{ID: testUserID, Name: "A", Username: "a@x.com", Password: cred}
}

func TestUserService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		m := new(mockUserRepo)
		svc, h := newTestUserService(m)
		m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "a@x.com" && h.Verify("pw1", u.Password)
		})).Return(&model.User{ID: testUserID, Username: "a@x.com"}, nil).Once()

		user, err := svc.SignUp(ctx, "A", "a@x.com", "pw1")
		assert.NoError(t, err)
		assert.Equal(t, testUserID, user.ID)
		m.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		m := new(mockUserRepo)
		svc, _ := newTestUserService(m)
		m.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperror.DuplicateKey("user", "username", nil)).Once()

		user, err := svc.SignUp(ctx, "A", "a@x.com", "pw1")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperror.ErrDuplicateKey)
		m.AssertExpectations(t)
	})

	t.Run("empty password never reaches the store", func(t *testing.T) {
		// отдельный мок: вызовы из соседних подтестов сюда не попадают
		m := new(mockUserRepo)
		svc, _ := newTestUserService(m)
		_, err := svc.SignUp(ctx, "A", "a@x.com", "")
		assert.ErrorIs(t, err, apperror.ErrValidation)
		m.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		assert.Empty(t, m.Calls)
	})
}

func TestUserService_SignInAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc, h := newTestUserService(m)
	u := storedUser(t, h, "pw1")

	m.On("GetUserByUsername", mock.Anything, "a@x.com").Return(u, nil)
	m.On("GetUserByUsername", mock.Anything, "nobody@x.com").Return(nil, apperror.NotFound("user", "nobody@x.com"))
	m.On("GetUserByID", mock.Anything, testUserID).Return(u, nil)

	got, token, err := svc.SignIn(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.SignIn(ctx, "a@x.com", "pw2")
	assert.ErrorIs(t, err, apperror.ErrAuth)

	// неизвестный логин неотличим от неверного пароля
	_, _, err2 := svc.SignIn(ctx, "nobody@x.com", "pw1")
	assert.ErrorIs(t, err2, apperror.ErrAuth)
	assert.Equal(t, err.Error(), err2.Error())

	who, ok := svc.Authenticate(ctx, token)
	assert.True(t, ok)
	assert.Equal(t, u.ID, who.ID)

	_, ok = svc.Authenticate(ctx, "garbage")
	assert.False(t, ok)
}

// memUsers — хранилище пользователей в памяти, хранит последнюю запись пароля.
type memUsers struct {
	mockUserRepo
	user model.User
}

func (r *memUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if id != r.user.ID {
		return nil, apperror.NotFound("user", id)
	}
	cp := r.user
	return &cp, nil
}

func (r *memUsers) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if username != r.user.Username {
		return nil, apperror.NotFound("user", username)
	}
	cp := r.user
	return &cp, nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id string, cred model.Credential) error {
	if id != r.user.ID {
		return apperror.NotFound("user", id)
	}
	r.user.Password = cred
	return nil
}

func TestUserService_ChangePassword_RotatesSecret(t *testing.T) {
	ctx := context.Background()
	h := auth.NewPasswordHasherWithCost(16)
	users := &memUsers{user: *storedUser(t, h, "old")}
	svc := NewUserService(users, h, auth.NewTokenCodec("cymarker", zap.NewNop().Sugar()), zap.NewNop().Sugar())

	me, oldToken, err := svc.SignIn(ctx, "a@x.com", "old")
	require.NoError(t, err)

	// неверный старый пароль
	_, _, err = svc.ChangePassword(ctx, me, "wrong", "new")
	assert.ErrorIs(t, err, apperror.ErrAuth)

	updated, newToken, err := svc.ChangePassword(ctx, me, "old", "new")
	require.NoError(t, err)
	assert.NotEqual(t, me.Password.DerivedKey, updated.Password.DerivedKey)

	// старый токен больше не проходит, новый проходит
	_, ok := svc.Authenticate(ctx, oldToken)
	assert.False(t, ok)
	_, ok = svc.Authenticate(ctx, newToken)
	assert.True(t, ok)

	_, _, err = svc.SignIn(ctx, "a@x.com", "old")
	assert.ErrorIs(t, err, apperror.ErrAuth)
	_, _, err = svc.SignIn(ctx, "a@x.com", "new")
	assert.NoError(t, err)
}
