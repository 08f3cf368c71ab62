package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/jwt"
)

// LocalClientName key en c.Locals para el cliente de integración autenticado.
const LocalClientName = "client_name"

// AuthMiddleware valida el Bearer Token JWT y deja el nombre del cliente de
// integración en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		clientName, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalClientName, clientName)
		return c.Next()
	}
}

// GetClientName devuelve el cliente autenticado (después del middleware).
func GetClientName(c *fiber.Ctx) string {
	v := c.Locals(LocalClientName)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
