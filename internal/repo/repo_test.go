package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"CyMarker/internal/model"
)

// newTestDB открывает отдельную in-memory SQLite (modernc.org/sqlite) на каждый тест.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
	db, err := InitDB(dsn)
	require.NoError(t, err, "failed to open sqlite (modernc)")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// mkUser создаёт пользователя с фиктивной, но корректной по форме записью пароля.
func mkUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u, err := NewUserRepository(db).CreateUser(context.Background(), &model.User{
		Name:     "Test",
		Username: username,
		Password: model.Credential{
			Salt:       make([]byte, model.SaltLen),
			DerivedKey: make([]byte, model.KeyLen),
			HashedAt:   time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	return u
}

func intp(v int) *int { return &v }
