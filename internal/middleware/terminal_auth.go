package middleware

import (
	"context"
	"fmt"
	"strings"
	"tradepost/pkg/httperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const terminalIDKey contextKey = "TerminalID"

// TerminalFromContext returns the terminal id set by the auth middleware, or
// an empty string for unauthenticated requests.
func TerminalFromContext(ctx context.Context) string {
	id, _ := ctx.Value(terminalIDKey).(string)
	return id
}

func WithTerminal(ctx context.Context, terminalID string) context.Context {
	return context.WithValue(ctx, terminalIDKey, terminalID)
}

// NewTerminalAuthMiddleware requires an HS256 bearer token whose subject
// names the till making the request.
func NewTerminalAuthMiddleware(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		tokenStr, ok := strings.CutPrefix(authorization, "Bearer ")
		if !ok || tokenStr == "" {
			return unauthorized(c, "auth.terminal.missing_token", "Bearer token required")
		}

		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return unauthorized(c, "auth.terminal.invalid_token", "Invalid or expired token")
		}
		if claims.Subject == "" {
			return unauthorized(c, "auth.terminal.missing_subject", "Token does not name a terminal")
		}

		userCtx := c.UserContext()
		if userCtx == nil {
			userCtx = context.Background()
		}
		c.SetUserContext(WithTerminal(userCtx, claims.Subject))

		return c.Next()
	}
}

// IssueTerminalToken signs a token for terminalID. Used by the operator CLI
// when provisioning a till.
func IssueTerminalToken(secret, terminalID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = terminalID
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func unauthorized(c *fiber.Ctx, code, message string) error {
	err := httperror.Unauthorized(code, message, nil)

	return c.Status(err.Status).JSON(fiber.Map{
		"code":    err.Code,
		"message": err.Message,
	})
}
