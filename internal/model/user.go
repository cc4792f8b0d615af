package model

import "github.com/penflow/penflow-sync-service/pkg/timex"

const TableNameUser = "user"

// User mapped from table <user>
type User struct {
	UID       int64      `gorm:"column:uid;primaryKey;autoIncrement" json:"uid" form:"uid"`
	Name      string     `gorm:"column:name;not null;index:idx_user_name" json:"name" form:"name"`
	LoginKey  string     `gorm:"column:login_key;not null;uniqueIndex:idx_user_login_key" json:"loginKey" form:"loginKey"`
	Password  string     `gorm:"column:password" json:"password" form:"password"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;autoUpdateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName User's table name
func (*User) TableName() string {
	return TableNameUser
}
