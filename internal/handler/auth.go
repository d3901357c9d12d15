package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/middleware"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/utils"
)

// IdentityService is implemented by service.IdentityService.
type IdentityService interface {
	Login(ctx context.Context, username, password string) (model.Principal, utils.SessionToken, error)
	Logout(ctx context.Context, raw string) error
	ChangePassword(ctx context.Context, p model.Principal, current, next string) error
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler serves /api/authentication.
type AuthHandler struct {
	Identity IdentityService
	Users    UserService
	Cookie   CookieConfig
}

func NewAuthHandler(id IdentityService, users UserService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{Identity: id, Users: users, Cookie: cookie}
}

type loginReq struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginResp struct {
	userDTO
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login: POST /api/authentication/login.  The session token is returned
// in the body and set as an HttpOnly cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	if strings.TrimSpace(req.UserName) == "" || req.Password == "" {
		return model.ErrInvalidCredentials
	}
	p, tok, err := h.Identity.Login(c.Request().Context(), req.UserName, req.Password)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie.Name,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, loginResp{
		userDTO:   userDTO{ID: p.UserID, UserName: p.Username, Roles: nonNil(p.Roles)},
		Token:     tok.Token,
		ExpiresAt: tok.Exp,
	})
}

// Me: GET /api/authentication/me
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.Users.Me(c.Request().Context(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserDTO(u))
}

// Logout: POST /api/authentication/logout.  Revokes the session the
// request carried and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := middleware.SessionToken(c); raw != "" {
		if err := h.Identity.Logout(c.Request().Context(), raw); err != nil {
			return err
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusOK)
}

// Register: POST /api/authentication/register (Admin).  Unlike
// POST /api/users the role list may be empty.
func (h *AuthHandler) Register(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	u, err := h.Users.Register(c.Request().Context(), middleware.Principal(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserDTO(u))
}

// ChangePassword: PUT /api/authentication/password.  All sessions of the
// caller end, including the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	if err := h.Identity.ChangePassword(c.Request().Context(), middleware.Principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
