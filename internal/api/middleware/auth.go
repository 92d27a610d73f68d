package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Auth validates the JWT and injects the owner id into context. Requests
// without a valid token are rejected.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			owner, email, ok := parseBearer(c, jwtSecret)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}
			c.Set("owner", owner)
			c.Set("email", email)
			return next(c)
		}
	}
}

// OptionalAuth resolves the owner when a valid bearer token is present and
// proceeds as guest otherwise. The start-job path uses this: guests are not
// rejected here, they are redirected to the payment flow by the service.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if owner, email, ok := parseBearer(c, jwtSecret); ok {
				c.Set("owner", owner)
				c.Set("email", email)
			}
			return next(c)
		}
	}
}

func parseBearer(c echo.Context, jwtSecret string) (owner, email string, ok bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "", false
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", "", false
	}

	owner, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	if owner == "" {
		return "", "", false
	}
	return owner, email, true
}
