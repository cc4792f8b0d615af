package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Change":
		return db.AutoMigrate(Change{})

	case "Session":
		return db.AutoMigrate(Session{})

	case "User":
		return db.AutoMigrate(User{})

	case "Document":
		return db.AutoMigrate(Document{})
	}
	return nil
}
