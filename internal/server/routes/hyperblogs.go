package routes

import (
	"net/http"
	"time"

	"github.com/zabal/bonfires/internal/server/middleware"
	"github.com/zabal/bonfires/pkg/api"
	"github.com/zabal/bonfires/pkg/bonfires"

	"github.com/labstack/echo/v4"
)

func GetHyperBlogsHandler(c echo.Context) error {
	params := new(bonfireParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.ListHyperBlogs(c.Request().Context(), params.BonfireID)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// CreateHyperBlogHandler starts generation and answers 202 with the job id.
// With ?wait=true it blocks until the job finishes and returns the hyperblog.
func CreateHyperBlogHandler(c echo.Context) error {
	type createHyperBlogParams struct {
		BonfireID string `param:"id" validate:"required"`
		bonfires.HyperBlogRequest
	}

	params := new(createHyperBlogParams)
	if err := c.Bind(params); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Bonfires
	jobID, err := client.StartHyperBlog(ctx, params.BonfireID, params.HyperBlogRequest)
	if err != nil {
		return upstreamError(c, err)
	}
	// echo does not bind query params on POST
	if c.QueryParam("wait") != "true" {
		return c.JSON(http.StatusAccepted, bonfires.JobRef{JobID: jobID})
	}

	res, err := client.WaitHyperBlog(ctx, params.BonfireID, jobID, api.PollOptions{Interval: 2 * time.Second})
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusCreated, res)
}

func GetJobHandler(c echo.Context) error {
	type getJobParams struct {
		JobID string `param:"id" validate:"required"`
	}

	params := new(getJobParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	res, err := client.JobStatus(c.Request().Context(), params.JobID)
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}
