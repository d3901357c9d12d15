package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/model"
)

const (
	principalKey = "principal"
	tokenKey     = "session_token"
)

// Resolver maps credentials and session tokens to principals.  It is
// implemented by service.IdentityService.
type Resolver interface {
	Authenticate(ctx context.Context, username, password string) (model.Principal, error)
	ResolveSession(ctx context.Context, raw string) (model.Principal, error)
}

// Identity resolves the caller of every request and stores the principal
// in the echo context.  A session token is accepted as a Bearer token or
// in the cookie named cookieName; Basic credentials are verified on the
// spot.  A missing or unusable token leaves the caller anonymous, while
// wrong Basic credentials fail the request with ErrInvalidCredentials.
func Identity(r Resolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			p := model.Anonymous

			raw := ""
			auth := req.Header.Get(echo.HeaderAuthorization)
			switch {
			case hasScheme(auth, "Bearer"):
				raw = strings.TrimSpace(auth[len("Bearer "):])
			case hasScheme(auth, "Basic"):
				user, pass, ok := req.BasicAuth()
				if !ok {
					return model.ErrInvalidCredentials
				}
				bp, err := r.Authenticate(ctx, user, pass)
				if err != nil {
					return err
				}
				p = bp
			default:
				if ck, err := c.Cookie(cookieName); err == nil {
					raw = ck.Value
				}
			}

			if raw != "" {
				sp, err := r.ResolveSession(ctx, raw)
				switch {
				case err == nil:
					p = sp
					c.Set(tokenKey, raw)
				case !errors.Is(err, model.ErrUnauthenticated):
					return err
				}
			}

			c.Set(principalKey, p)
			if !p.IsAnonymous() {
				l := zerolog.Ctx(ctx).With().Int64("user_id", p.UserID).Logger()
				c.SetRequest(req.WithContext(l.WithContext(ctx)))
			}
			return next(c)
		}
	}
}

func hasScheme(header, scheme string) bool {
	return len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) && header[len(scheme)] == ' '
}

// Principal returns the caller resolved by Identity, or the anonymous
// principal when Identity did not run.
func Principal(c echo.Context) model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return p
	}
	return model.Anonymous
}

// SessionToken returns the session token the request was authenticated
// with, if any.
func SessionToken(c echo.Context) string {
	s, _ := c.Get(tokenKey).(string)
	return s
}

// userID is the rate-limit and log label for the caller.
func userID(c echo.Context) string {
	p := Principal(c)
	if p.IsAnonymous() {
		return "anon"
	}
	return strconv.FormatInt(p.UserID, 10)
}
