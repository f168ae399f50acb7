package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a board member. Passwords are stored as bcrypt hashes only.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	LoginID         string    `gorm:"size:50;not null;uniqueIndex" json:"login_id"`
	PasswordHash    string    `gorm:"size:255;not null" json:"-"`
	Nickname        string    `gorm:"size:50;not null;uniqueIndex" json:"nickname"`
	Email           string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role            Role      `gorm:"size:16;not null;default:user" json:"role"`
	ProfileImageURL string    `gorm:"size:512" json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps and role are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
