package models

import "time"

// Comment represents a reply to a board.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	BoardID   uint           `gorm:"index;not null" json:"board_id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	User      User           `json:"author"`
	Images    []CommentImage `json:"images,omitempty"`
}

// CommentImage is an image attached to a comment.
type CommentImage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CommentID        uint      `gorm:"index;not null" json:"comment_id"`
	ImageURL         string    `gorm:"size:1024;not null" json:"image_url"`
	OriginalFileName string    `gorm:"size:255" json:"original_file_name"`
	OrderIndex       int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt        time.Time `json:"created_at"`
}
