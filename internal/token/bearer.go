package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mobile-gateway/internal/auth/models"
)

// Claims are embedded in every access token.
type Claims struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// BearerGenerator issues HS256-signed bearer tokens plus opaque refresh
// tokens. It implements Generator.
type BearerGenerator struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// BearerOption configures a BearerGenerator.
type BearerOption func(*BearerGenerator)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) BearerOption {
	return func(g *BearerGenerator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewBearerGenerator constructs the default token generator.
func NewBearerGenerator(signingKey, issuer string, opts ...BearerOption) *BearerGenerator {
	g := &BearerGenerator{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *BearerGenerator) CreateToken(_ context.Context, req GrantRequest) (*models.TokenResult, error) {
	now := g.now()
	scope := strings.Join(req.Scopes, " ")

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   req.UserID.String(),
		ClientID: req.ClientID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(req.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    g.issuer,
			Subject:   req.UserID.String(),
			ID:        uuid.NewString(),
		},
	})

	signed, err := access.SignedString(g.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &models.TokenResult{
		AccessToken:  signed,
		TokenType:    "Bearer",
		ExpiresIn:    int64(req.ExpiresIn / time.Second),
		RefreshToken: refresh,
		Scope:        scope,
	}, nil
}

// ValidateToken parses and verifies an access token, returning its claims.
func (g *BearerGenerator) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return g.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
