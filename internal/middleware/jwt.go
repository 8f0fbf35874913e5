package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
)

// Context keys set by JWTAuth for downstream middleware and handlers.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxPrincipal = "principal"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// loads the principal from the database (password hash is never attached to
// the context) and injects it into the request context.  A token for a
// missing or deactivated account fails with 401 just like a bad signature;
// distinct messages tell the sub-cases apart.
func JWTAuth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return unauthorized(c, "token expired")
				}
				return unauthorized(c, "invalid token")
			}
			if !tok.Valid {
				return unauthorized(c, "invalid token")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "invalid claims")
			}
			uid := subjectID(claims)
			if uid == 0 {
				return unauthorized(c, "invalid claims")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, uid)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized(c, "unknown user")
				}
				return err
			}
			if !u.IsActive {
				return unauthorized(c, "account deactivated")
			}
			u.PasswordHash = ""

			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			c.Set(CtxPrincipal, &u)
			return next(c)
		}
	}
}

// Principal returns the authenticated user attached by JWTAuth.
func Principal(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(CtxPrincipal).(*model.User)
	return u, ok
}

// subjectID extracts the numeric subject claim.  JWT numbers decode as
// float64; string subjects are parsed for compatibility.
func subjectID(claims jwt.MapClaims) uint64 {
	switch v := claims["sub"].(type) {
	case float64:
		return uint64(v)
	case string:
		var n uint64
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + uint64(r-'0')
		}
		return n
	}
	return 0
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": msg})
}
