package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
)

// AccessToken - выданный токен и срок его действия.
type AccessToken struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   time.Duration `json:"expires_in"`
	Address     string        `json:"address"`
}

// TokenManager отвечает за выпуск и проверку JWT. Субъект токена - адрес кошелька.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
	}
}

// Issue выпускает access токен для адреса.
func (m *TokenManager) Issue(addr valueobject.Address) (*AccessToken, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": addr.String(),
		"iat": now.Unix(),
		"exp": now.Add(m.accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.accessSecret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		AccessToken: signed,
		ExpiresIn:   m.accessTTL,
		Address:     addr.String(),
	}, nil
}

// ParseAccess проверяет подпись и срок и возвращает адрес из sub.
func (m *TokenManager) ParseAccess(token string) (valueobject.Address, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}

	return valueobject.ParseAddress(sub)
}
