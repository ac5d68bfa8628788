package db

import (
	"time"
)

// Account is an authentication identity. Anonymous accounts have no email or
// password hash; their email column is NULL so the unique index skips them.
type Account struct {
	UID          string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:255;default:null"`
	PasswordHash string
	DisplayName  string
	Anonymous    bool `gorm:"index"`
	CreatedAt    time.Time
}

type Admin struct {
	UID         string `gorm:"primaryKey;size:64"`
	Email       string `gorm:"size:255"`
	DisplayName string
	JoinCode    string `gorm:"uniqueIndex;size:16"`
	CreatedAt   time.Time
}

type Child struct {
	UID       string `gorm:"primaryKey;size:64"`
	Name      string
	AdminUID  string `gorm:"index;size:64"`
	Tasks     []Task `gorm:"foreignKey:ChildUID;constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Task struct {
	ID        string `gorm:"primaryKey;size:64"`
	ChildUID  string `gorm:"index;size:64"`
	Title     string
	Complete  string `gorm:"size:16"` // stored as text, read with model.ParseComplete
	CreatedAt time.Time
}
