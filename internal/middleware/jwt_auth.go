package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/examcore/internal/domain"
)

// Context keys for storing the authenticated caller
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	NameKey   = "name"
	EmailKey  = "email"
)

// VerifyExamCoreToken validates the service JWT and extracts claims
func VerifyExamCoreToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get token from Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := authHeader
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}

		// Parse and validate token
		token, err := jwt.ParseWithClaims(tokenString, &domain.ExamCoreClaims{}, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		})

		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Extract claims
		claims, ok := token.Claims.(*domain.ExamCoreClaims)
		if !ok || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		// Store claims in context
		c.Locals(UserIDKey, claims.UserID)
		c.Locals(RoleKey, claims.Role)
		c.Locals(NameKey, claims.Name)
		c.Locals(EmailKey, claims.Email)

		return c.Next()
	}
}

// AuthorizeRole checks if the caller's role is one of the allowed roles.
// Authorization failures carry a generic message only; the ownership rule
// inside the services decides the rest.
func AuthorizeRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(RoleKey).(string)
		if !ok || role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No role found in token",
			})
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// GetActor extracts the authenticated caller from Fiber context.
// Should only be called after VerifyExamCoreToken.
func GetActor(c *fiber.Ctx) domain.Actor {
	actor := domain.Actor{}
	if v, ok := c.Locals(UserIDKey).(string); ok {
		actor.UserID = v
	}
	if v, ok := c.Locals(RoleKey).(string); ok {
		actor.Role = v
	}
	return actor
}
