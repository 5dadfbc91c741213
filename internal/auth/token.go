package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"account-service/internal/domain"
)

// ErrInvalidToken is returned for every verification failure. Callers are
// not told why a token was rejected; diagnostics belong in logs.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity embedded in a session token.
type Claims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserID returns the subject claim as the numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// TokenConfig holds the process-wide signing configuration. It is built once
// at startup and never mutated.
type TokenConfig struct {
	Secret string
	Issuer string
	// Audience is stamped into issued tokens.
	Audience string
	// AcceptedAudiences lists every audience a presented token may carry.
	AcceptedAudiences []string
	TTL               time.Duration
}

// TokenManager issues and verifies signed session tokens.
type TokenManager struct {
	cfg TokenConfig
}

// NewTokenManager validates the signing configuration. A missing secret is a
// configuration error and should abort startup.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token signing secret is not configured")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if len(cfg.AcceptedAudiences) == 0 && cfg.Audience != "" {
		cfg.AcceptedAudiences = []string{cfg.Audience}
	}
	return &TokenManager{cfg: cfg}, nil
}

// TTL reports the validity window applied to issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.cfg.TTL
}

// Issue creates a signed token for the user, valid for exactly the
// configured TTL from now.
func (m *TokenManager) Issue(user *domain.User, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
			ID:        uuid.NewString(),
		},
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks signature, issuer, audience membership and the validity
// window (zero clock skew) as of now. Every failure yields ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string, now time.Time) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if !m.audienceAccepted(claims.Audience) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// audienceAccepted reports whether any audience on the token is in the
// accepted set. Both the admin and user audiences are typically accepted.
func (m *TokenManager) audienceAccepted(aud jwt.ClaimStrings) bool {
	for _, got := range aud {
		for _, want := range m.cfg.AcceptedAudiences {
			if got == want {
				return true
			}
		}
	}
	return false
}
