package routes

import (
	"net/http"

	"github.com/zabal/bonfires/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

type bonfireParams struct {
	BonfireID string `param:"id" validate:"required"`
}

func GetBonfiresHandler(c echo.Context) error {
	client := c.(*middleware.AppContext).App.Bonfires

	res, err := client.ListBonfires(c.Request().Context())
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func GetBonfireHandler(c echo.Context) error {
	params := new(bonfireParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.GetBonfire(c.Request().Context(), params.BonfireID)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func GetAgentsHandler(c echo.Context) error {
	params := new(bonfireParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.ListAgents(c.Request().Context(), params.BonfireID)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func GetEpisodesHandler(c echo.Context) error {
	type getEpisodesParams struct {
		BonfireID string `param:"id" validate:"required"`
		Limit     int    `query:"limit" validate:"omitempty,min=1,max=500"`
	}

	params := new(getEpisodesParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.ListEpisodes(c.Request().Context(), params.BonfireID, params.Limit)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}
