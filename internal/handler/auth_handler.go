package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/examcore/internal/middleware"
	"github.com/mansoorceksport/examcore/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /v1/auth/login. The identity-provider token arrives
// as a Bearer token and is exchanged for a service JWT.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Missing authorization header",
		})
	}
	idToken := strings.TrimPrefix(authHeader, "Bearer ")

	resp, err := h.auth.LoginOrRegister(c.Context(), idToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Authentication failed",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    resp,
	})
}

// Me handles GET /v1/auth/me, returning the account behind the token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.Context(), middleware.GetActor(c).UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}
