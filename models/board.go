package models

import "time"

// Board is a discussion post. LikeCount mirrors the number of BoardLike rows for the board.
type Board struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	UserID     uint         `gorm:"index;not null" json:"user_id"`
	CategoryID *uint        `gorm:"index" json:"category_id"`
	Title      string       `gorm:"size:200;not null" json:"title"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	ViewCount  int64        `gorm:"not null;default:0" json:"view_count"`
	LikeCount  int64        `gorm:"not null;default:0" json:"like_count"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	User       User         `json:"author"`
	Category   *Category    `json:"category,omitempty"`
	Images     []BoardImage `json:"images,omitempty"`
}

// BoardImage is an image attached to a board, ordered by OrderIndex.
type BoardImage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BoardID          uint      `gorm:"index;not null" json:"board_id"`
	ImageURL         string    `gorm:"size:1024;not null" json:"image_url"`
	OriginalFileName string    `gorm:"size:255" json:"original_file_name"`
	OrderIndex       int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt        time.Time `json:"created_at"`
}

// BoardLike records that a user liked a board. At most one row exists per (board, user).
type BoardLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BoardID   uint      `gorm:"not null;uniqueIndex:idx_board_likes_board_user" json:"board_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_board_likes_board_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
