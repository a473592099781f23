package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/i474232898/weather-odds/internal/export"
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

const requesterKey = "requester"

type identityClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// identity resolves the caller from a bearer token. Without a secret every
// caller is anonymous and no header is required.
func identity(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		if secret == "" {
			c.Locals(requesterKey, export.Anonymous)
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperrors.New(apperrors.KindUnauthorized, "missing authorization header")
		}
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			return apperrors.New(apperrors.KindUnauthorized, "invalid authorization header")
		}

		claims := &identityClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return apperrors.Wrap(apperrors.KindUnauthorized, "token validation failed", err)
		}

		subject := claims.UserID
		if subject == "" {
			subject = claims.Subject
		}
		if subject == "" {
			return apperrors.New(apperrors.KindUnauthorized, "token carries no subject")
		}
		c.Locals(requesterKey, subject)
		return c.Next()
	}
}

func requesterFrom(c *fiber.Ctx) string {
	if v, ok := c.Locals(requesterKey).(string); ok && v != "" {
		return v
	}
	return export.Anonymous
}
