package api_router

import (
	"strconv"

	"github.com/penflow/penflow-sync-service/internal/app"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/internal/middleware"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocumentHandler handles document metadata, HTTP change log access and
// snapshots. The websocket carries live sync; these endpoints serve initial
// loads, plain REST clients and tooling.
type DocumentHandler struct {
	*Handler
}

// NewDocumentHandler creates a DocumentHandler instance.
func NewDocumentHandler(a *app.App) *DocumentHandler {
	return &DocumentHandler{Handler: NewHandler(a)}
}

// Create mints a document and its changeset id.
func (h *DocumentHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	params := &dto.DocumentCreateRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("api.document.Create.BindAndValid", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	doc, err := h.App.DocumentService.Create(c.Request.Context(), middleware.GetSessionUID(c), params.Title)
	if err != nil {
		h.respondError(c, code.ErrorDocumentCreateFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(doc))
}

// List returns the user's documents.
func (h *DocumentHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	docs, err := h.App.DocumentService.List(c.Request.Context(), middleware.GetSessionUID(c))
	if err != nil {
		h.respondError(c, code.ErrorDocumentListFailed, err)
		return
	}

	response.ToResponseList(code.Success, docs, len(docs))
}

// Get returns one document with its head version.
func (h *DocumentHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	changesetID := c.Param("changesetId")
	doc, err := h.App.DocumentService.Get(c.Request.Context(), middleware.GetSessionUID(c), changesetID)
	if err != nil {
		h.respondError(c, code.ErrorDocumentNotFound, err)
		return
	}

	response.ToResponse(code.Success.WithData(doc))
}

// Rename updates a document's title.
func (h *DocumentHandler) Rename(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	params := &dto.DocumentRenameRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	changesetID := c.Param("changesetId")
	if err := h.App.DocumentService.Rename(c.Request.Context(), middleware.GetSessionUID(c), changesetID, params.Title); err != nil {
		h.respondError(c, code.ErrorStoreWrite, err)
		return
	}

	response.ToResponse(code.Success)
}

// Delete removes a document together with its change log.
func (h *DocumentHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	changesetID := c.Param("changesetId")
	if err := h.App.DocumentService.Delete(c.Request.Context(), middleware.GetSessionUID(c), changesetID); err != nil {
		h.respondError(c, code.ErrorDocumentDeleteFailed, err)
		return
	}

	response.ToResponse(code.Success)
}

// Changes returns the change log past a version over plain HTTP.
func (h *DocumentHandler) Changes(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	changesetID := c.Param("changesetId")
	sinceVersion, err := strconv.ParseInt(c.DefaultQuery("sinceVersion", "0"), 10, 64)
	if err != nil || sinceVersion < 0 {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("sinceVersion must be a non-negative integer"))
		return
	}

	ctx := c.Request.Context()
	uid := middleware.GetSessionUID(c)
	if _, err := h.App.DocumentService.GetOwned(ctx, uid, changesetID); err != nil {
		h.respondError(c, code.ErrorDocumentNotFound, err)
		return
	}

	page, err := h.App.ChangelogService.GetChanges(ctx, changesetID, sinceVersion)
	if err != nil {
		h.respondError(c, code.ErrorChangesetFetchFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(page))
}

// Snapshot returns the reconstructed document state at head.
func (h *DocumentHandler) Snapshot(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	changesetID := c.Param("changesetId")
	ctx := c.Request.Context()
	uid := middleware.GetSessionUID(c)

	if _, err := h.App.DocumentService.GetOwned(ctx, uid, changesetID); err != nil {
		h.respondError(c, code.ErrorDocumentNotFound, err)
		return
	}

	snap, err := h.App.SnapshotService.GetSnapshot(ctx, changesetID)
	if err != nil {
		h.respondError(c, code.ErrorSnapshotFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(snap))
}

// Version returns the head version of a document's changeset.
func (h *DocumentHandler) Version(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	changesetID := c.Param("changesetId")
	ctx := c.Request.Context()
	uid := middleware.GetSessionUID(c)

	if _, err := h.App.DocumentService.GetOwned(ctx, uid, changesetID); err != nil {
		h.respondError(c, code.ErrorDocumentNotFound, err)
		return
	}

	version, err := h.App.ChangelogService.GetVersion(ctx, changesetID)
	if err != nil {
		h.respondError(c, code.ErrorChangesetFetchFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.VersionResponse{
		ChangesetID: changesetID,
		Version:     version,
	}))
}
