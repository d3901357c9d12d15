// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/handler"
	"github.com/iliyamo/theater-booking/internal/middleware"
	"github.com/iliyamo/theater-booking/internal/model"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Log            zerolog.Logger
	RequestTimeout time.Duration

	Resolver   middleware.Resolver
	CookieName string
	Cache      *middleware.ResponseCache
	RateLimit  echo.MiddlewareFunc // applied to login; nil disables it

	DB       handler.Pinger
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Theaters *handler.TheaterHandler
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Metrics sits outside the logger so it sees the final status.
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	if d.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(d.RequestTimeout))
	}

	e.GET("/healthz", handler.Health(d.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	identity := middleware.Identity(d.Resolver, d.CookieName)
	api := e.Group("/api", identity)

	registerAuth(api, d)
	registerUsers(api, d)
	registerTheaters(api, d)
	return e
}

func registerAuth(api *echo.Group, d Deps) {
	g := api.Group("/authentication")
	login := []echo.MiddlewareFunc{}
	if d.RateLimit != nil {
		login = append(login, d.RateLimit)
	}
	g.POST("/login", d.Auth.Login, login...)
	g.GET("/me", d.Auth.Me, middleware.RequireAuthenticated())
	g.POST("/logout", d.Auth.Logout, middleware.RequireAuthenticated())
	g.PUT("/password", d.Auth.ChangePassword, middleware.RequireAuthenticated())
	g.POST("/register", d.Auth.Register, middleware.RequireRole(model.RoleAdmin))
}

func registerUsers(api *echo.Group, d Deps) {
	g := api.Group("/users", middleware.RequireRole(model.RoleAdmin))
	g.GET("", d.Users.List)
	g.GET("/:id", d.Users.Get)
	g.POST("", d.Users.Create)
	g.PUT("/:id/roles", d.Users.UpdateRoles)
	// a deleted manager disappears from theater responses
	g.DELETE("/:id", d.Users.Delete, d.Cache.InvalidateOnSuccess())
}

func registerTheaters(api *echo.Group, d Deps) {
	g := api.Group("/theaters")
	g.GET("", d.Theaters.List, d.Cache.Middleware())
	g.GET("/:id", d.Theaters.Get, d.Cache.Middleware())

	invalidate := d.Cache.InvalidateOnSuccess()
	g.POST("", d.Theaters.Create, invalidate)
	g.PUT("/:id", d.Theaters.Update, invalidate)
	g.DELETE("/:id", d.Theaters.Delete, invalidate)
}
