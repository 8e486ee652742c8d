package token

import (
	"fmt"
	"time"

	"audio-recorder/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "audio-recorder"

// Claims carry the caller identity on every request and at WebSocket
// connect time. Issuing is owned by the external auth service; this
// package only needs the shared secret to verify.
type Claims struct {
	UserID uuid.UUID `json:"sub_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

func (m *Manager) Generate(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	return claims, nil
}
