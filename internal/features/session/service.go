package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrSessionDisabled = errors.New("session validation is not configured")

// SessionService validates access tokens issued by the auth provider. The
// provider signs them with HS256 using the project's JWT secret.
type SessionService struct {
	secret []byte
}

func NewSessionService(secret string) *SessionService {
	return &SessionService{secret: []byte(secret)}
}

func (s *SessionService) IsEnabled() bool {
	return len(s.secret) > 0
}

func (s *SessionService) GetUserFromToken(token string) (*SessionUser, error) {
	if !s.IsEnabled() {
		return nil, ErrSessionDisabled
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, errors.New("invalid token")
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid token claims")
	}

	user := &SessionUser{ID: userID}
	user.Email, _ = claims["email"].(string)
	if metadata, ok := claims["user_metadata"].(map[string]any); ok {
		user.Username, _ = metadata["username"].(string)
	}

	return user, nil
}

// GenerateToken signs a token in the auth provider's format. Used by local
// tooling and tests; production tokens come from the provider.
func (s *SessionService) GenerateToken(user *SessionUser, ttl time.Duration) (string, error) {
	if !s.IsEnabled() {
		return "", ErrSessionDisabled
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"role": "authenticated",
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}
	if user.Username != "" {
		claims["user_metadata"] = map[string]any{"username": user.Username}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return token, nil
}
