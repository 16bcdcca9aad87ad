package model

import (
	"time"

	"gorm.io/datatypes"
)

// Session binds an issued token to its owner until Expiration.
type Session struct {
	ID         uint                        `gorm:"primaryKey"`
	UserID     uint                        `gorm:"column:id_user;not null;index"`
	Token      string                      `gorm:"column:token;type:text;not null;uniqueIndex"`
	Expiration time.Time                   `gorm:"column:expiration;not null;index"`
	Roles      datatypes.JSONSlice[string] `gorm:"column:roles"`
	CreatedAt  time.Time                   `gorm:"column:created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

