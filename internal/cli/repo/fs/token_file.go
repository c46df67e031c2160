package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"CyMarker/internal/cli/repo"
)

// ErrNoToken — токен ещё не сохранён (или файл пуст).
var ErrNoToken = errors.New("not logged in")

// TokenFile — файловое хранилище токена CLI.
type TokenFile struct {
	Path string
}

var _ repo.TokenStore = TokenFile{}

// Save сохраняет токен, создавая каталог при необходимости.
func (s TokenFile) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Load читает токен. Отсутствующий или пустой файл даёт ErrNoToken.
func (s TokenFile) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Clear удаляет файл токена; отсутствие файла не ошибка.
func (s TokenFile) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
