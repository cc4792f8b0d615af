package dto

// DocumentCreateRequest creates a document; the server mints the changeset
// id that sync and broadcast key on.
type DocumentCreateRequest struct {
	Title string `json:"title" form:"title" binding:"max=256"`
}

// DocumentRenameRequest renames a document.
type DocumentRenameRequest struct {
	Title string `json:"title" form:"title" binding:"required,max=256"`
}

// DocumentResponse is the metadata of one synced document.
type DocumentResponse struct {
	ChangesetID string `json:"changesetId"`
	Title       string `json:"title"`
	Version     int64  `json:"version,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ShareCreateResponse carries a read-only share token for one changeset.
type ShareCreateResponse struct {
	ChangesetID string `json:"changesetId"`
	ShareToken  string `json:"shareToken"`
	ExpiredAt   string `json:"expiredAt"`
}
