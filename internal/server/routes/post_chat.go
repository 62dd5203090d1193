package routes

import (
	"net/http"

	"github.com/zabal/bonfires/internal/server/middleware"
	"github.com/zabal/bonfires/pkg/bonfires"

	"github.com/labstack/echo/v4"
)

func ChatHandler(c echo.Context) error {
	type chatParams struct {
		AgentID string `param:"id" validate:"required"`
		bonfires.ChatRequest
	}

	params := new(chatParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.Chat(c.Request().Context(), params.AgentID, params.ChatRequest)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}
