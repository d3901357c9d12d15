package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/model"
)

// RequireAuthenticated rejects anonymous callers with ErrUnauthenticated.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Principal(c).IsAnonymous() {
				return model.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// RequireRole lets a request through only when the caller holds one of
// roles.  Anonymous callers get ErrUnauthenticated and everyone else
// ErrForbidden.  It guards whole route groups; services still make
// their own decisions.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Principal(c)
			if p.IsAnonymous() {
				return model.ErrUnauthenticated
			}
			for _, r := range roles {
				if p.HasRole(r) {
					return next(c)
				}
			}
			return model.ErrForbidden
		}
	}
}
