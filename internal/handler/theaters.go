package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/middleware"
	"github.com/iliyamo/theater-booking/internal/model"
)

// TheaterService is implemented by service.TheaterService.
type TheaterService interface {
	List(ctx context.Context, p model.Principal) ([]*model.Theater, error)
	Get(ctx context.Context, p model.Principal, id int64) (*model.Theater, error)
	Create(ctx context.Context, p model.Principal, t model.Theater) (*model.Theater, error)
	Update(ctx context.Context, p model.Principal, id int64, t model.Theater) (*model.Theater, error)
	Delete(ctx context.Context, p model.Principal, id int64) error
}

// TheaterHandler serves /api/theaters.
type TheaterHandler struct {
	Theaters TheaterService
}

func NewTheaterHandler(s TheaterService) *TheaterHandler { return &TheaterHandler{Theaters: s} }

// List: GET /api/theaters
func (h *TheaterHandler) List(c echo.Context) error {
	ts, err := h.Theaters.List(c.Request().Context(), middleware.Principal(c))
	if err != nil {
		return err
	}
	out := make([]theaterDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTheaterDTO(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Get: GET /api/theaters/:id
func (h *TheaterHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := h.Theaters.Get(c.Request().Context(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTheaterDTO(t))
}

// Create: POST /api/theaters (Admin)
func (h *TheaterHandler) Create(c echo.Context) error {
	var req theaterDTO
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	t, err := h.Theaters.Create(c.Request().Context(), middleware.Principal(c), fromTheaterRequest(req))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/theaters/"+strconv.FormatInt(t.ID, 10))
	return c.JSON(http.StatusCreated, toTheaterDTO(t))
}

// Update: PUT /api/theaters/:id (Admin or the theater's manager)
func (h *TheaterHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req theaterDTO
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	t, err := h.Theaters.Update(c.Request().Context(), middleware.Principal(c), id, fromTheaterRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTheaterDTO(t))
}

// Delete: DELETE /api/theaters/:id (Admin)
func (h *TheaterHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Theaters.Delete(c.Request().Context(), middleware.Principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
