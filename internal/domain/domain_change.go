// Package domain defines the domain models and repository interfaces.
package domain

import (
	"encoding/json"
	"time"
)

// Change is one appended entry of a changeset's log. Position is assigned by
// the store and is contiguous from 1 within a changeset; the version of a
// changeset equals the number of changes recorded for it.
type Change struct {
	ID          int64
	ChangesetID string
	Position    int64
	Ops         json.RawMessage
	UID         int64
	ClientName  string
	Timestamp   int64
	CreatedAt   time.Time
}

// ChangePage is a fetched slice of a changeset's log together with the head
// version observed at read time.
type ChangePage struct {
	Changes     []*Change
	HeadVersion int64
}
