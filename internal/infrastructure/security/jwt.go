// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateSessionToken creates a JWT binding a browser session ID. Clients
// present the token on subsequent requests to prove ownership of the session.
func GenerateSessionToken(sessionID, jwtSecret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sessionId": sessionID,
		"role":      "session",
		"iat":       time.Now().UTC().Unix(),
		"exp":       time.Now().UTC().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GetSessionIDFromClaims extracts the session ID from JWT claims
func GetSessionIDFromClaims(claims jwt.MapClaims) string {
	if sessionID, ok := claims["sessionId"].(string); ok {
		return sessionID
	}
	return ""
}

// GenerateOpsToken creates a short-lived JWT for the ops console.
func GenerateOpsToken(jwtSecret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"role": "ops",
		"iat":  time.Now().UTC().Unix(),
		"exp":  time.Now().UTC().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// IsOpsClaims reports whether validated claims carry the ops role.
func IsOpsClaims(claims jwt.MapClaims) bool {
	role, ok := claims["role"].(string)
	return ok && role == "ops"
}

// VerifyOpsPassword checks a plaintext ops password against the configured
// bcrypt hash.
func VerifyOpsPassword(password, passwordHash string) bool {
	if passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}

// HashOpsPassword produces a bcrypt hash suitable for OPS_PASSWORD_HASH.
func HashOpsPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
