package domain

import "time"

// Document is the metadata record of one synced note. ChangesetID is the
// sync key: the change log and the broadcast group both hang off it.
type Document struct {
	ID          int64
	ChangesetID string
	UID         int64
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
