package routers

import (
	"time"

	"github.com/penflow/penflow-sync-service/internal/app"
	"github.com/penflow/penflow-sync-service/internal/middleware"
	"github.com/penflow/penflow-sync-service/internal/routers/api_router"
	"github.com/penflow/penflow-sync-service/internal/routers/websocket_router"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/auth",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

// NewRouter builds the public HTTP router and the websocket sync endpoint.
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {
	cfg := appContainer.Config()

	wss := pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,
			Recovery:            gws.Recovery,
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true},
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024 * 16,
			WriteMaxPayloadSize: 1024 * 1024 * 16,
		},
	})

	collabWSHandler := websocket_router.NewCollabWSHandler(appContainer, wss)

	wss.Use("ChangesetOpen", collabWSHandler.ChangesetOpen)
	wss.Use("ChangesetClose", collabWSHandler.ChangesetClose)
	wss.Use("FetchChanges", collabWSHandler.FetchChanges)
	wss.Use("PushChange", collabWSHandler.PushChange)
	wss.Use("ChangesetSnapshot", collabWSHandler.ChangesetSnapshot)

	wss.SessionVerifyUse(collabWSHandler.SessionVerify)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.TraceMiddleware(cfg.Tracer.Header))
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog())
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		authHandler := api_router.NewAuthHandler(appContainer)
		documentHandler := api_router.NewDocumentHandler(appContainer)
		shareHandler := api_router.NewShareHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/version", versionHandler.ServerVersion)

		// The websocket endpoint authenticates inside the connection with
		// the Authorization message, not through the session middleware.
		api.GET("/sync", wss.Run())

		// Read-only share access.
		shared := api.Group("/shared", middleware.ShareAuth(appContainer.TokenManager))
		shared.GET("/snapshot", shareHandler.Snapshot)

		authed := api.Group("", middleware.SessionAuth(appContainer.SessionService))
		{
			authed.POST("/auth/logout", authHandler.Logout)
			authed.GET("/auth/me", authHandler.Me)

			authed.POST("/documents", documentHandler.Create)
			authed.GET("/documents", documentHandler.List)
			authed.GET("/documents/:changesetId", documentHandler.Get)
			authed.PUT("/documents/:changesetId", documentHandler.Rename)
			authed.DELETE("/documents/:changesetId", documentHandler.Delete)
			authed.GET("/documents/:changesetId/changes", documentHandler.Changes)
			authed.GET("/documents/:changesetId/snapshot", documentHandler.Snapshot)
			authed.GET("/documents/:changesetId/version", documentHandler.Version)
			authed.POST("/documents/:changesetId/share", shareHandler.Create)
		}
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
