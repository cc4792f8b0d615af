package model

import "github.com/penflow/penflow-sync-service/pkg/timex"

const TableNameChange = "change"

// Change mapped from table <change>. The unique index on
// (changeset_id, position) is the storage-level backstop for position
// assignment: two appends racing for the same position cannot both land.
type Change struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	ChangesetID string     `gorm:"column:changeset_id;not null;uniqueIndex:idx_changeset_pos,priority:1" json:"changesetId" form:"changesetId"`
	Position    int64      `gorm:"column:position;not null;uniqueIndex:idx_changeset_pos,priority:2" json:"position" form:"position"`
	Ops         string     `gorm:"column:ops;type:text;not null" json:"ops" form:"ops"`
	UID         int64      `gorm:"column:uid;not null;index:idx_change_uid" json:"uid" form:"uid"`
	ClientName  string     `gorm:"column:client_name" json:"clientName" form:"clientName"`
	Timestamp   int64      `gorm:"column:timestamp;not null" json:"timestamp" form:"timestamp"`
	CreatedAt   timex.Time `gorm:"column:created_at;type:datetime;autoUpdateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName Change's table name
func (*Change) TableName() string {
	return TableNameChange
}
