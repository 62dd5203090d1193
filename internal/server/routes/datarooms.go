package routes

import (
	"net/http"

	"github.com/zabal/bonfires/internal/server/middleware"
	"github.com/zabal/bonfires/pkg/bonfires"

	"github.com/labstack/echo/v4"
)

func GetDataRoomsHandler(c echo.Context) error {
	params := new(bonfireParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.ListDataRooms(c.Request().Context(), params.BonfireID)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// CreateDataRoomHandler forwards the caller's X-PAYMENT header untouched.
func CreateDataRoomHandler(c echo.Context) error {
	type createDataRoomParams struct {
		BonfireID string `param:"id" validate:"required"`
		bonfires.CreateDataRoomRequest
	}

	params := new(createDataRoomParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	payment := c.Request().Header.Get(bonfires.PaymentHeader)
	res, err := client.CreateDataRoom(c.Request().Context(), params.BonfireID, params.CreateDataRoomRequest, payment)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusCreated, res)
}
