package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
)

// RequireOwnership guards a route whose :param identifies a resource.  The
// resource must exist (404 otherwise) and be owned by the authenticated
// user; admins bypass the ownership check but not the existence check.
func RequireOwnership(resolve repository.OwnerResolver, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id"})
			}
			if err := AuthorizeOwner(c, resolve, id); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// AuthorizeOwner performs the existence and ownership checks for a single
// resource ID.  Handlers call it directly when the parent resource arrives
// in the request body rather than the path, e.g. creating a menu under a
// restaurant.  Existence is checked before ownership so probing for foreign
// resources yields 404, not 403.
func AuthorizeOwner(c echo.Context, resolve repository.OwnerResolver, id uint64) error {
	owner, err := resolve.OwnerOf(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "resource not found"})
		}
		return err
	}
	uid, _ := c.Get(CtxUserID).(uint64)
	role, _ := c.Get(CtxRole).(string)
	if role == model.RoleAdmin {
		return nil
	}
	if owner != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "you do not own this resource"})
	}
	return nil
}
