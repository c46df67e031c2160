package model

import (
	"time"
)

// Длины полей scrypt-записи пароля.
const (
	SaltLen = 16
	KeyLen  = 64
)

// Credential — scrypt-запись пароля пользователя. DerivedKey одновременно служит
// секретом подписи сессионных токенов этого пользователя.
type Credential struct {
	Salt       []byte    `gorm:"column:password_salt;not null"`
	DerivedKey []byte    `gorm:"column:password_key;not null"`
	HashedAt   time.Time `gorm:"column:password_hashed_at;not null"`
}

// WellFormed проверяет длины соли и ключа и что HashedAt не в будущем.
func (c Credential) WellFormed(now time.Time) bool {
	return len(c.Salt) == SaltLen &&
		len(c.DerivedKey) == KeyLen &&
		!c.HashedAt.IsZero() &&
		!c.HashedAt.After(now)
}

// User — серверная модель пользователя.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Name     string `gorm:"not null;index" json:"name"`
	Username string `gorm:"not null;uniqueIndex" json:"username"` // email, используется для входа

	Password Credential `gorm:"embedded" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
