package routes

import (
	"net/http"

	"github.com/zabal/bonfires/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetGraphHandler(c echo.Context) error {
	type getGraphParams struct {
		BonfireID string `param:"id" validate:"required"`
		AgentID   string `query:"agent_id"`
	}

	params := new(getGraphParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.Graph(c.Request().Context(), params.BonfireID, params.AgentID)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func ExpandGraphHandler(c echo.Context) error {
	type expandGraphParams struct {
		BonfireID string `param:"id" validate:"required"`
		NodeUUID  string `query:"node_uuid" validate:"required"`
		Depth     int    `query:"depth" validate:"omitempty,min=1,max=3"`
	}

	params := new(expandGraphParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.ExpandDepth(c.Request().Context(), params.BonfireID, params.NodeUUID, params.Depth)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}
