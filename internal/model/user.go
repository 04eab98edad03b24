package model

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:128;not null" json:"name"`
	Email             string    `gorm:"size:255;not null;index" json:"email"`
	Password          string    `gorm:"size:255;not null" json:"-"`
	Role              string    `gorm:"size:16;not null;default:user" json:"role"`
	Status            string    `gorm:"size:16;not null;default:active" json:"status"`
	IsDeleted         bool      `gorm:"not null;default:false;index" json:"isDeleted"`
	IsProfileComplete bool      `gorm:"not null;default:false" json:"isProfileComplete"`
	Phone             *string   `gorm:"size:32" json:"phone"`
	Address           *string   `gorm:"size:255" json:"address"`
	City              *string   `gorm:"size:128" json:"city"`
	State             *string   `gorm:"size:128" json:"state"`
	Zip               *string   `gorm:"size:32" json:"zip"`
	Country           *string   `gorm:"size:128" json:"country"`
	CreatedAt         time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// LoginUserInfo is the minimal identity returned after a successful login.
type LoginUserInfo struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	Status string `json:"status"`
}
