package middleware

import (
	"fmt"
	"os"
	"strings"

	"qrcred-recovery/constants"
	"qrcred-recovery/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequireOperator gates the admin/debug surface behind an operator JWT.
// The token is HMAC-signed with OPERATOR_JWT_SECRET and must carry one
// of the operator permissions in its "permissions" claim.
func RequireOperator() fiber.Handler {
	return IsAuthenticated(constants.OperatorPermissions)
}

// IsAuthenticated checks for a valid JWT with any of the required permissions
func IsAuthenticated(requiredPermissions []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Authorization token missing",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Invalid authorization header format",
			})
		}

		claims, err := verifyToken(tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Invalid or expired token",
			})
		}

		if !hasPermission(claims, requiredPermissions) {
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Status:  fiber.StatusForbidden,
				Message: "Insufficient permissions",
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

func verifyToken(tokenString string) (jwt.MapClaims, error) {
	secret := os.Getenv("OPERATOR_JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("OPERATOR_JWT_SECRET is not set")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}

func hasPermission(claims jwt.MapClaims, requiredPermissions []string) bool {
	for _, required := range requiredPermissions {
		if required == constants.PermAny {
			return true
		}
	}

	userPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return false
	}

	permissionSet := make(map[string]bool)
	for _, p := range userPermissions {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}

	for _, required := range requiredPermissions {
		if permissionSet[required] {
			return true
		}
	}
	return false
}
