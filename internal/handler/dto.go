package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/service"
)

type theaterDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	SeatCount int    `json:"seatCount"`
	ManagerID *int64 `json:"managerId"`
}

func toTheaterDTO(t *model.Theater) theaterDTO {
	return theaterDTO{
		ID:        t.ID,
		Name:      t.Name,
		Address:   t.Address,
		SeatCount: t.SeatCount,
		ManagerID: t.ManagerID,
	}
}

// fromTheaterRequest ignores any id in the body; the path decides.
func fromTheaterRequest(d theaterDTO) model.Theater {
	return model.Theater{
		Name:      d.Name,
		Address:   d.Address,
		SeatCount: d.SeatCount,
		ManagerID: d.ManagerID,
	}
}

type userDTO struct {
	ID       int64    `json:"id"`
	UserName string   `json:"userName"`
	Roles    []string `json:"roles"`
}

func toUserDTO(u *service.UserRecord) userDTO {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userDTO{ID: u.ID, UserName: u.Username, Roles: roles}
}

type createUserReq struct {
	UserName string   `json:"userName"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

func (r createUserReq) input() service.CreateUserInput {
	return service.CreateUserInput{Username: r.UserName, Password: r.Password, Roles: r.Roles}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &model.ValidationError{Field: "id", Message: "Id must be a positive integer."}
	}
	return id, nil
}
