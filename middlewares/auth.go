package middlewares

import (
	"errors"
	"strings"
	"time"

	"travel-backoffice/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "

	LocalTenantID = "tenantID"
	LocalUserID   = "userID"
)

// Identity is who is calling and on behalf of which tenant.
type Identity struct {
	TenantID string
	UserID   string
}

// TenantResolver turns a request into an Identity or an error.
type TenantResolver interface {
	Resolve(c *fiber.Ctx) (Identity, error)
}

// ResolverFunc adapts a function to TenantResolver.
type ResolverFunc func(c *fiber.Ctx) (Identity, error)

func (f ResolverFunc) Resolve(c *fiber.Ctx) (Identity, error) { return f(c) }

// Claims is our JWT payload (subject=userID, plus tenant).
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTResolver validates HS256 bearer tokens.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) (*JWTResolver, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
	}
	return &JWTResolver{secret: []byte(secret)}, nil
}

func unauthorized(hint string) error {
	return apperr.NewError(hint).WithHint(hint).Mark(apperr.ErrUnauthorized)
}

func (r *JWTResolver) Resolve(c *fiber.Ctx) (Identity, error) {
	h := c.Get(authHeader)
	if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
		return Identity{}, unauthorized("missing/invalid Authorization header")
	}
	raw := strings.TrimSpace(h[len(bearerPrefix):])
	if raw == "" {
		return Identity{}, unauthorized("invalid bearer token")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, unauthorized("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.TenantID) == "" {
		return Identity{}, unauthorized("token missing subject/tenant")
	}
	return Identity{TenantID: claims.TenantID, UserID: claims.Subject}, nil
}

// GenerateJWT signs a new HS256 token for the given user & tenant.
func (r *JWTResolver) GenerateJWT(userID, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.secret)
}

// Authenticate resolves the caller and populates c.Locals(LocalTenantID, LocalUserID).
func Authenticate(resolver TenantResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := resolver.Resolve(c)
		if err != nil {
			return err
		}
		c.Locals(LocalTenantID, id.TenantID)
		c.Locals(LocalUserID, id.UserID)
		return c.Next()
	}
}

// CurrentIdentity reads what Authenticate stored.
func CurrentIdentity(c *fiber.Ctx) Identity {
	tenant, _ := c.Locals(LocalTenantID).(string)
	user, _ := c.Locals(LocalUserID).(string)
	return Identity{TenantID: tenant, UserID: user}
}
