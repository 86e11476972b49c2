package driven

import "github.com/saron-retail/saron-core/internal/core/domain"

// TokenVerifier handles bearer token cryptography.
// Login and sessions live outside this service; it only checks what the
// dashboard's login service signed.
type TokenVerifier interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
