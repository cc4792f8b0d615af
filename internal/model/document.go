package model

import "github.com/penflow/penflow-sync-service/pkg/timex"

const TableNameDocument = "document"

// Document mapped from table <document>
type Document struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	ChangesetID string     `gorm:"column:changeset_id;not null;uniqueIndex:idx_document_changeset" json:"changesetId" form:"changesetId"`
	UID         int64      `gorm:"column:uid;not null;index:idx_document_uid" json:"uid" form:"uid"`
	Title       string     `gorm:"column:title" json:"title" form:"title"`
	UpdatedAt   timex.Time `gorm:"column:updated_at;type:datetime;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
	CreatedAt   timex.Time `gorm:"column:created_at;type:datetime;autoUpdateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName Document's table name
func (*Document) TableName() string {
	return TableNameDocument
}
