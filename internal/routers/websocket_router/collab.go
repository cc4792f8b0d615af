package websocket_router

import (
	"context"

	"github.com/penflow/penflow-sync-service/internal/app"
	"github.com/penflow/penflow-sync-service/internal/dto"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"go.uber.org/zap"
)

// CollabWSHandler handles the changeset sync actions: open/close a
// changeset's broadcast group, fetch changes since a version, and push a
// change that is acknowledged to the sender and fanned out to everyone else.
type CollabWSHandler struct {
	*WSHandler
	wss *pkgapp.WebsocketServer
}

// NewCollabWSHandler creates a CollabWSHandler instance.
func NewCollabWSHandler(a *app.App, wss *pkgapp.WebsocketServer) *CollabWSHandler {
	return &CollabWSHandler{WSHandler: NewWSHandler(a), wss: wss}
}

// SessionVerify resolves an opaque session token for the websocket
// Authorization step.
func (h *CollabWSHandler) SessionVerify(token string) (*pkgapp.SessionEntity, error) {
	ctx := context.Background()

	session, err := h.App.SessionService.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	name := app.WebClientName
	if user, err := h.App.UserService.Get(ctx, session.UID); err == nil {
		name = user.Name
	}

	return &pkgapp.SessionEntity{
		UID:   session.UID,
		Name:  name,
		Token: session.Token,
	}, nil
}

// ChangesetOpen subscribes the connection to a changeset after an ownership
// check and reports the current head version, so the client knows what to
// fetch.
func (h *CollabWSHandler) ChangesetOpen(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.ChangesetSubscribeRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), msg.Type)
		return
	}

	ctx := c.Ctx.Request.Context()
	if _, err := h.App.DocumentService.GetOwned(ctx, c.Session.UID, params.ChangesetID); err != nil {
		h.respondError(c, code.ErrorDocumentNotFound, err, "ws.ChangesetOpen", msg.Type)
		return
	}

	version, err := h.App.ChangelogService.GetVersion(ctx, params.ChangesetID)
	if err != nil {
		h.respondError(c, code.ErrorChangesetFetchFailed, err, "ws.ChangesetOpen", msg.Type)
		return
	}

	h.wss.Subscribe(c, params.ChangesetID)
	h.App.Logger().Info("changeset opened",
		zap.Int64("uid", c.Session.UID),
		zap.String("changeset", params.ChangesetID),
		zap.Int64("version", version))

	c.ToResponse(code.Success.WithData(dto.VersionResponse{
		ChangesetID: params.ChangesetID,
		Version:     version,
	}), msg.Type)
}

// ChangesetClose drops the connection from a changeset's broadcast group.
func (h *CollabWSHandler) ChangesetClose(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.ChangesetSubscribeRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), msg.Type)
		return
	}

	h.wss.Unsubscribe(c, params.ChangesetID)
	c.ToResponse(code.Success, msg.Type)
}

// FetchChanges returns the changes past the version the client holds.
func (h *CollabWSHandler) FetchChanges(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.ChangesFetchRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), msg.Type)
		return
	}

	page, err := h.App.ChangelogService.GetChanges(c.Ctx.Request.Context(), params.ChangesetID, params.SinceVersion)
	if err != nil {
		h.respondError(c, code.ErrorChangesetFetchFailed, err, "ws.FetchChanges", msg.Type)
		return
	}

	c.ToResponse(code.Success.WithData(page), msg.Type)
}

// PushChange appends a change, acknowledges the assigned position to the
// sender and broadcasts the change to the changeset's other subscribers.
func (h *CollabWSHandler) PushChange(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.ChangePushRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), msg.Type)
		return
	}

	ctx := c.Ctx.Request.Context()
	ack, err := h.App.ChangelogService.AddChange(ctx, params.ChangesetID, c.Session.UID, c.Session.Name, params.Ops, params.Timestamp)
	if err != nil {
		h.respondError(c, code.ErrorChangeAppendFailed, err, "ws.PushChange", msg.Type)
		return
	}

	c.ToResponse(code.Success.WithData(ack), msg.Type)

	c.BroadcastChangeset(params.ChangesetID, code.Success.WithData(dto.ChangeBroadcast{
		ChangesetID: params.ChangesetID,
		Version:     ack.Version,
		Change: dto.ChangeResponse{
			Position:   ack.Position,
			Ops:        params.Ops,
			UID:        c.Session.UID,
			ClientName: c.Session.Name,
			Timestamp:  params.Timestamp,
		},
	}), true, "ChangeBroadcast")
}

// ChangesetSnapshot reconstructs and returns the document state at head.
func (h *CollabWSHandler) ChangesetSnapshot(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.ChangesetSubscribeRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), msg.Type)
		return
	}

	snap, err := h.App.SnapshotService.GetSnapshot(c.Ctx.Request.Context(), params.ChangesetID)
	if err != nil {
		h.respondError(c, code.ErrorSnapshotFailed, err, "ws.ChangesetSnapshot", msg.Type)
		return
	}

	c.ToResponse(code.Success.WithData(snap), msg.Type)
}
