package api_router

import (
	"time"

	"github.com/penflow/penflow-sync-service/internal/app"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/internal/middleware"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ShareHandler mints read-only share tokens and serves snapshots to their
// bearers. A share token is scoped to exactly one changeset.
type ShareHandler struct {
	*Handler
}

// NewShareHandler creates a ShareHandler instance.
func NewShareHandler(a *app.App) *ShareHandler {
	return &ShareHandler{Handler: NewHandler(a)}
}

// Create mints a share token for a document the caller owns.
func (h *ShareHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	changesetID := c.Param("changesetId")
	ctx := c.Request.Context()
	uid := middleware.GetSessionUID(c)

	if _, err := h.App.DocumentService.GetOwned(ctx, uid, changesetID); err != nil {
		h.respondError(c, code.ErrorDocumentNotFound, err)
		return
	}

	token, err := h.App.TokenManager.GenerateShareToken(changesetID, uid)
	if err != nil {
		h.respondError(c, code.ErrorInternal, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.ShareCreateResponse{
		ChangesetID: changesetID,
		ShareToken:  token,
		ExpiredAt:   time.Now().Add(h.App.Config().GetShareTokenExpiry()).Format("2006-01-02 15:04:05"),
	}))
}

// Snapshot serves the shared document's state to a share token bearer.
func (h *ShareHandler) Snapshot(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	claims := middleware.GetShareClaims(c)
	if claims == nil {
		response.ToResponse(code.ErrorInvalidShareToken)
		return
	}

	snap, err := h.App.SnapshotService.GetSnapshot(c.Request.Context(), claims.ChangesetID)
	if err != nil {
		h.respondError(c, code.ErrorSnapshotFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(snap))
}
