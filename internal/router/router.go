package router

import (
	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/handler"
	"github.com/SohaibShaar/waiting-system-sub001/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Queues   *handler.QueueHandler
	Stations *handler.StationHandler
	Stages   *handler.StageHandler
	Archive  *handler.ArchiveHandler
	Settings *handler.SettingsHandler
}

// RegisterRoutes wires the full HTTP surface.
//
// Public routes carry the response cache: the waiting-room screens
// poll them every few seconds.  Everything mutating sits behind JWT;
// intake and the call actions additionally pass the rate limiter so a
// stuck client cannot hammer the counter or spam announcements.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, cache, limiter echo.MiddlewareFunc) {
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if cache == nil {
		cache = passthrough
	}
	if limiter == nil {
		limiter = passthrough
	}

	e.GET("/healthz", handler.Health)
	e.POST("/v1/auth/login", h.Auth.Login)

	// Public display reads, cached.
	pub := e.Group("/v1", cache)
	pub.GET("/stations", h.Stations.List)
	pub.GET("/stations/:id/waiting", h.Stations.Waiting)
	pub.GET("/stations/:id/current", h.Stations.Current)
	pub.GET("/settings/favorite-price", h.Settings.GetFavoritePrice)

	// Operator surface, JWT required.
	op := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	op.POST("/queues", h.Queues.Open, limiter)
	op.GET("/queues", h.Queues.List)
	op.GET("/queues/:id", h.Queues.Get)
	op.PATCH("/queues/:id/priority", h.Queues.ChangePriority)
	op.POST("/queues/:id/cancel", h.Queues.Cancel)
	op.POST("/queues/:id/reinstate", h.Queues.Reinstate)
	op.POST("/queues/:id/complete", h.Queues.Complete)

	op.POST("/stations", h.Stations.Create)
	op.PUT("/stations/:id", h.Stations.Update)
	op.DELETE("/stations/:id", h.Stations.Delete)
	op.POST("/stations/:id/call-next", h.Stations.CallNext, limiter)
	op.POST("/stations/:id/call", h.Stations.Call, limiter)
	op.POST("/stations/:id/start", h.Stations.Start)
	op.POST("/stations/:id/complete", h.Stations.Complete)
	op.POST("/stations/:id/skip", h.Stations.Skip)
	op.POST("/stations/:id/readmit", h.Stations.Readmit)

	op.PUT("/queues/:id/stages/:stage", h.Stages.Put)
	op.GET("/queues/:id/stages/:stage", h.Stages.Get)

	op.GET("/archive/queues", h.Archive.List)
	op.GET("/archive/stats", h.Archive.Stats)
	op.POST("/archive/run", h.Archive.Run)

	op.PUT("/settings/favorite-price", h.Settings.PutFavoritePrice)
}
