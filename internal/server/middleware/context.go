package middleware

import (
	"github.com/zabal/bonfires/pkg/bonfires"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// App is the state shared by every request. Bonfires wraps the single
// process-wide API client, so all requests share its cache.
type App struct {
	Bonfires     *bonfires.Client
	Key          keyfunc.Keyfunc
	MasterAPIKey string
}

// AuthEnabled reports whether credentials are checked at all.
func (a *App) AuthEnabled() bool {
	return a.Key != nil || a.MasterAPIKey != ""
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
