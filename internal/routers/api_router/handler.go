// Package api_router provides the HTTP API handlers.
package api_router

import (
	"github.com/penflow/penflow-sync-service/internal/app"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"
	apperrors "github.com/penflow/penflow-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Handler base handler embedding the app container. Every API handler
// embeds it for dependency access.
type Handler struct {
	App *app.App
}

// NewHandler creates a base handler instance.
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// respondError maps a service error onto the unified envelope. Errors that
// already carry a result code pass through unchanged.
func (h *Handler) respondError(c *gin.Context, fallback *code.Code, err error) {
	response := pkgapp.NewResponse(c)
	if cerr := apperrors.CodeOf(err, nil); cerr != nil {
		response.ToResponse(cerr)
		return
	}
	response.ToResponse(fallback.WithDetails(err.Error()))
}
