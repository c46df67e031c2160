package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"CyMarker/internal/model"
)

const (
	// TokenTTL — срок жизни сессионного токена.
	TokenTTL = 8 * time.Hour
	// Audience — единственная допустимая аудитория токена.
	Audience = "user"
)

// ErrSigning возвращается, если секрет подписи отсутствует или повреждён.
var ErrSigning = errors.New("auth: signing token")

// Claims — полезная нагрузка сессионного токена.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserFinder ищет пользователя по id для получения актуального секрета.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// TokenCodec выпускает и проверяет токены. Секрет подписи — DerivedKey
// текущего пароля пользователя, поэтому смена пароля отзывает все старые токены.
type TokenCodec struct {
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewTokenCodec создаёт кодек с именем сервиса в качестве issuer.
func NewTokenCodec(issuer string, logger *zap.SugaredLogger) *TokenCodec {
	return &TokenCodec{issuer: issuer, ttl: TokenTTL, now: time.Now, logger: logger}
}

// Issue подписывает токен HS256 ключом secret.
func (c *TokenCodec) Issue(userID, username string, secret []byte) (string, error) {
	if len(secret) != model.KeyLen {
		return "", fmt.Errorf("%w: secret must be %d bytes, got %d", ErrSigning, model.KeyLen, len(secret))
	}
	now := c.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Validate возвращает пользователя токена или (nil, false). Сначала дешёвая
// проверка формы claims без подписи, затем поиск пользователя и полная проверка
// подписи и срока его текущим ключом. Ошибки наружу не выходят.
func (c *TokenCodec) Validate(ctx context.Context, token string, users UserFinder) (*model.User, bool) {
	var unverified Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &unverified); err != nil {
		c.logger.Debugw("token: malformed", "error", err)
		return nil, false
	}
	if err := c.checkShape(&unverified); err != nil {
		c.logger.Warnw("token: bad claims", "error", err)
		return nil, false
	}

	user, err := users.GetUserByID(ctx, unverified.Subject)
	if err != nil || user == nil {
		c.logger.Warnw("token: user lookup failed", "sub", unverified.Subject, "error", err)
		return nil, false
	}

	var verified Claims
	_, err = jwt.ParseWithClaims(token, &verified,
		func(*jwt.Token) (any, error) { return user.Password.DerivedKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(Audience),
		jwt.WithSubject(user.ID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		c.logger.Debugw("token: verification failed", "sub", user.ID, "error", err)
		return nil, false
	}
	if err := c.checkShape(&verified); err != nil || verified.Username != user.Username {
		c.logger.Warnw("token: verified claims mismatch", "sub", user.ID, "error", err)
		return nil, false
	}
	return user, true
}

func (c *TokenCodec) checkShape(cl *Claims) error {
	if cl.Issuer != c.issuer {
		return fmt.Errorf("issuer %q", cl.Issuer)
	}
	if !slices.Contains(cl.Audience, Audience) {
		return fmt.Errorf("audience %v", cl.Audience)
	}
	if _, err := uuid.Parse(cl.Subject); err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	if cl.Username == "" {
		return errors.New("empty username")
	}
	return nil
}
