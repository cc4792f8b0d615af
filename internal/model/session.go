package model

import "github.com/penflow/penflow-sync-service/pkg/timex"

const TableNameSession = "session"

// Session mapped from table <session>
type Session struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UID       int64      `gorm:"column:uid;not null;index:idx_session_uid" json:"uid" form:"uid"`
	Token     string     `gorm:"column:token;not null;uniqueIndex:idx_session_token" json:"token" form:"token"`
	ClientIP  string     `gorm:"column:client_ip" json:"clientIp" form:"clientIp"`
	ExpiredAt timex.Time `gorm:"column:expired_at;type:datetime;autoUpdateTime:false" json:"expiredAt" form:"expiredAt"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;autoUpdateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName Session's table name
func (*Session) TableName() string {
	return TableNameSession
}
