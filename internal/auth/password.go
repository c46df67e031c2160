package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/scrypt"

	"CyMarker/internal/apperror"
	"CyMarker/internal/model"
)

// Параметры scrypt по умолчанию (N=2^14, r=8, p=1).
const (
	defaultScryptN = 1 << 14
	scryptR        = 8
	scryptP        = 1
)

// PasswordHasher выводит и проверяет scrypt-записи паролей.
// Безопасен для конкурентного использования.
type PasswordHasher struct {
	n    int
	rand io.Reader
	now  func() time.Time
}

// NewPasswordHasher создаёт хешер с рабочими параметрами scrypt.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(defaultScryptN)
}

// NewPasswordHasherWithCost позволяет задать N (степень двойки). Нужен тестам,
// чтобы не тратить время на полноценный KDF.
func NewPasswordHasherWithCost(n int) *PasswordHasher {
	return &PasswordHasher{n: n, rand: rand.Reader, now: time.Now}
}

// Derive выводит ключ из пароля. Если salt не ровно SaltLen байт, генерируется новая соль.
func (h *PasswordHasher) Derive(password string, salt []byte) (model.Credential, error) {
	if password == "" {
		return model.Credential{}, apperror.Validation("password", "password must not be empty")
	}
	if len(salt) != model.SaltLen {
		salt = make([]byte, model.SaltLen)
		if _, err := io.ReadFull(h.rand, salt); err != nil {
			return model.Credential{}, fmt.Errorf("auth: generating salt: %w", err)
		}
	}
	key, err := scrypt.Key([]byte(password), salt, h.n, scryptR, scryptP, model.KeyLen)
	if err != nil {
		return model.Credential{}, fmt.Errorf("auth: deriving key: %w", err)
	}
	return model.Credential{Salt: salt, DerivedKey: key, HashedAt: h.now().UTC()}, nil
}

// Verify сверяет пароль с сохранённой записью. Никогда не возвращает ошибку:
// повреждённая запись или любой сбой дают false.
func (h *PasswordHasher) Verify(password string, stored model.Credential) bool {
	if len(stored.Salt) != model.SaltLen || len(stored.DerivedKey) != model.KeyLen {
		return false
	}
	fresh, err := h.Derive(password, stored.Salt)
	if err != nil {
		return false
	}
	if subtle.ConstantTimeCompare(fresh.DerivedKey, stored.DerivedKey) != 1 {
		return false
	}
	// запись не может быть моложе только что вычисленной
	return !stored.HashedAt.After(fresh.HashedAt)
}
