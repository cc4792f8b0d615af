// Package websocket_router provides the websocket action handlers.
package websocket_router

import (
	"github.com/penflow/penflow-sync-service/internal/app"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"
	apperrors "github.com/penflow/penflow-sync-service/pkg/errors"

	"go.uber.org/zap"
)

// WSHandler base handler embedding the app container. Every websocket
// handler embeds it for dependency access and uniform error responses.
type WSHandler struct {
	App *app.App
}

// NewWSHandler creates a base websocket handler instance.
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	fields := []zap.Field{zap.Error(err)}
	if c != nil && c.Session != nil {
		fields = append(fields, zap.Int64("uid", c.Session.UID))
	}
	h.App.Logger().Error(method, fields...)
}

// respondError logs the failure and answers the client. Service errors that
// already carry a result code pass through unchanged.
func (h *WSHandler) respondError(c *pkgapp.WebsocketClient, fallback *code.Code, err error, method string, action string) {
	h.logError(c, method, err)
	if cerr := apperrors.CodeOf(err, nil); cerr != nil {
		c.ToResponse(cerr, action)
		return
	}
	c.ToResponse(fallback.WithDetails(err.Error()), action)
}
