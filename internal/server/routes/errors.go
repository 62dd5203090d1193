package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/zabal/bonfires/pkg/api"
	"github.com/zabal/bonfires/pkg/logger"

	"github.com/labstack/echo/v4"
)

// errorResponse mirrors the backend error body so clients see one shape.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// upstreamError translates a failure of the Bonfires backend into a response.
// Classified HTTP errors keep their status and body, network failures become
// 502, job failures 422, poll timeouts 504.
func upstreamError(c echo.Context, err error) error {
	var jobErr *api.JobError
	switch {
	case errors.As(err, &jobErr):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Code: "JOB_FAILED", Message: jobErr.Message})
	case errors.Is(err, api.ErrPollTimeout):
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Code: "JOB_TIMEOUT", Message: err.Error()})
	case errors.Is(err, context.Canceled):
		return c.NoContent(499)
	}

	apiErr, ok := api.AsError(err)
	if !ok {
		logger.Error("Invalid response from Bonfires API", "path", c.Path(), "err", err)
		return c.JSON(http.StatusBadGateway, errorResponse{Code: "BAD_UPSTREAM_RESPONSE", Message: "Invalid response from upstream"})
	}

	body := errorResponse{Code: apiErr.Code, Message: apiErr.Message}
	if len(apiErr.Details) > 0 {
		body.Details = apiErr.Details
	}
	if apiErr.Status == 0 {
		logger.Error("Bonfires API unreachable", "path", c.Path(), "err", err)
		return c.JSON(http.StatusBadGateway, body)
	}
	return c.JSON(apiErr.Status, body)
}

func invalidParams(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
}
