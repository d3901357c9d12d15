package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/middleware"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/service"
)

// UserService is implemented by service.UserService.
type UserService interface {
	Me(ctx context.Context, p model.Principal) (*service.UserRecord, error)
	List(ctx context.Context, p model.Principal) ([]*service.UserRecord, error)
	Get(ctx context.Context, p model.Principal, id int64) (*service.UserRecord, error)
	Create(ctx context.Context, p model.Principal, in service.CreateUserInput) (*service.UserRecord, error)
	Register(ctx context.Context, p model.Principal, in service.CreateUserInput) (*service.UserRecord, error)
	ReplaceRoles(ctx context.Context, p model.Principal, id int64, roles []string) (*service.UserRecord, error)
	Delete(ctx context.Context, p model.Principal, id int64) (*service.UserRecord, error)
}

// UserHandler serves /api/users.  The whole group is Admin only.
type UserHandler struct {
	Users UserService
}

func NewUserHandler(s UserService) *UserHandler { return &UserHandler{Users: s} }

// List: GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context(), middleware.Principal(c))
	if err != nil {
		return err
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get: GET /api/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.Users.Get(c.Request().Context(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserDTO(u))
}

// Create: POST /api/users
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	u, err := h.Users.Create(c.Request().Context(), middleware.Principal(c), req.input())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/users/"+strconv.FormatInt(u.ID, 10))
	return c.JSON(http.StatusCreated, toUserDTO(u))
}

// UpdateRoles: PUT /api/users/:id/roles with a JSON array of role names.
func (h *UserHandler) UpdateRoles(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var roles []string
	if err := json.NewDecoder(c.Request().Body).Decode(&roles); err != nil {
		return badBody()
	}
	u, err := h.Users.ReplaceRoles(c.Request().Context(), middleware.Principal(c), id, roles)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("User %s roles updated successfully!", u.Username),
		"user":    toUserDTO(u),
	})
}

// Delete: DELETE /api/users/:id
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.Users.Delete(c.Request().Context(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("User %s deleted successfully!", u.Username)})
}
