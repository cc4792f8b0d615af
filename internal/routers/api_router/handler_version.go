package api_router

import (
	"github.com/penflow/penflow-sync-service/internal/app"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionHandler reports the server build identity.
type VersionHandler struct {
	*Handler
}

// NewVersionHandler creates a VersionHandler instance.
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{Handler: NewHandler(a)}
}

// ServerVersion returns version, git tag and build time.
func (h *VersionHandler) ServerVersion(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	response.ToResponse(code.Success.WithData(h.App.Version()))
}
