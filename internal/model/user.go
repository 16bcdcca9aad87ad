package model

import "time"

// UserStatus is the lifecycle state of a user row. Rows are never removed,
// deletion only moves them to UserStatusDeleted.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusDeleted UserStatus = "deleted"
)

type User struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Email     string     `gorm:"column:email;not null;size:255;uniqueIndex:idx_users_email_active,where:status = 'active'"`
	Password  string     `gorm:"column:password;not null" json:"-"`
	Cellphone string     `gorm:"column:cellphone"`
	Status    UserStatus `gorm:"column:status;size:16;not null;default:active;index"`
	CreatedAt time.Time  `gorm:"column:created_at;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
