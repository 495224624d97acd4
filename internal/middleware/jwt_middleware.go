package middleware

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Keys under which the authenticated identity is stored in fiber.Ctx locals.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalRole     = "role"
)

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header is required"
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", "Authorization header format must be 'Bearer <token>'"
	}
	return parts[1], ""
}

func storeClaims(c *fiber.Ctx, claims *services.Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalRole, claims.Role)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(auth TokenValidator, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": problem,
			})
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			log.Debug("JWT validation failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth stores the identity of a valid token and lets anonymous
// requests through unchanged. An invalid token is treated as no token.
func OptionalAuth(auth TokenValidator, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			return c.Next()
		}
		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			log.Debug("ignoring invalid token on optional route", zap.String("path", c.Path()), zap.Error(err))
			return c.Next()
		}
		storeClaims(c, claims)
		return c.Next()
	}
}

// StaffRequired lets only admins and managers through. It must run after AuthRequired.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !models.IsStaffRole(Role(c)) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": services.ErrForbidden.Error(),
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}
