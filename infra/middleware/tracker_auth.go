package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"tracker_server/core/port/out"
	"tracker_server/pkg/apperr"
	"tracker_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthConfig configures JWTAuth.
type AuthConfig struct {
	Secret string

	// Revocations is optional. When set, tokens carrying a revoked jti are rejected.
	Revocations out.TokenRevocationStore
}

// Claims are the access token claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for userID.
func IssueToken(secret string, userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTAuth validates HS256 bearer tokens and stores the caller in Locals.
func JWTAuth(cfg AuthConfig) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(time.Minute),
	)

	return func(c *fiber.Ctx) error {
		// Skip auth for CORS preflight requests
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		if cfg.Secret == "" {
			return apperr.Unauthorized("authentication is not configured")
		}

		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		var claims Claims
		_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return apperr.ErrTokenExpired
			}
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.InvalidToken("invalid token")
		}

		if cfg.Revocations != nil && claims.ID != "" {
			revoked, err := cfg.Revocations.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				logger.WithError(err).Warn("token revocation check failed")
				return apperr.Unauthorized("unable to verify token")
			}
			if revoked {
				return apperr.InvalidToken("token has been revoked")
			}
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return apperr.InvalidToken("invalid user id format")
		}

		c.Locals("user_id", userID)
		c.Locals("user_email", claims.Email)
		c.Locals("claims", &claims)
		c.SetUserContext(context.WithValue(c.UserContext(), logger.UserIDKey, userID.String()))

		return c.Next()
	}
}

// RevokeCurrent revokes the token that authenticated this request.
func RevokeCurrent(c *fiber.Ctx, store out.TokenRevocationStore) error {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok || claims.ID == "" {
		return apperr.BadRequest("token cannot be revoked")
	}
	if store == nil {
		return apperr.ConfigError("token revocation is not configured")
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return store.Revoke(c.UserContext(), claims.ID, ttl)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
