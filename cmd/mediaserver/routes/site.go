package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/handlers"
)

// RegisterSiteRoutes registers the static site gateway routes. These live
// at the root, not under the API prefix, so extracted sites resolve their
// own relative links.
func RegisterSiteRoutes(e *echo.Echo, site *handlers.SiteHandler) {
	e.GET("/sites/:id", site.ServeSite)
	e.GET("/sites/:id/*", site.ServeSite)
}
