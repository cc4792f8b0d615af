// Package dto defines request parameters and response structures.
package dto

import "encoding/json"

// ChangesFetchRequest asks for the changes of a changeset past a version the
// client already holds.
type ChangesFetchRequest struct {
	ChangesetID  string `json:"changesetId" form:"changesetId" binding:"required"`
	SinceVersion int64  `json:"sinceVersion" form:"sinceVersion" binding:"min=0"`
}

// ChangePushRequest appends one change to a changeset. Ops is the opaque
// operation payload; the server assigns the position.
type ChangePushRequest struct {
	ChangesetID string          `json:"changesetId" form:"changesetId" binding:"required"`
	Ops         json.RawMessage `json:"ops" form:"ops" binding:"required"`
	Timestamp   int64           `json:"timestamp" form:"timestamp"`
}

// ChangesetSubscribeRequest opens or closes a changeset's broadcast group
// for the connection.
type ChangesetSubscribeRequest struct {
	ChangesetID string `json:"changesetId" form:"changesetId" binding:"required"`
}

// ChangeResponse is one change of a fetched page or a broadcast.
type ChangeResponse struct {
	Position   int64           `json:"position"`
	Ops        json.RawMessage `json:"ops"`
	UID        int64           `json:"uid"`
	ClientName string          `json:"clientName,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// ChangesFetchResponse carries the fetched slice plus the head version
// observed at read time, so the client knows it is caught up.
type ChangesFetchResponse struct {
	ChangesetID  string           `json:"changesetId"`
	SinceVersion int64            `json:"sinceVersion"`
	HeadVersion  int64            `json:"headVersion"`
	Changes      []ChangeResponse `json:"changes"`
}

// ChangePushResponse acknowledges an append with the assigned position.
type ChangePushResponse struct {
	ChangesetID string `json:"changesetId"`
	Position    int64  `json:"position"`
	Version     int64  `json:"version"`
}

// ChangeBroadcast is fanned out to the other subscribers of a changeset
// after a successful append.
type ChangeBroadcast struct {
	ChangesetID string         `json:"changesetId"`
	Version     int64          `json:"version"`
	Change      ChangeResponse `json:"change"`
}

// VersionResponse reports the head version of a changeset.
type VersionResponse struct {
	ChangesetID string `json:"changesetId"`
	Version     int64  `json:"version"`
}

// SnapshotResponse is the reconstructed document state at the head version.
type SnapshotResponse struct {
	ChangesetID string `json:"changesetId"`
	Version     int64  `json:"version"`
	Content     string `json:"content"`
}
