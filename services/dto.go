package services

import (
	"math"
	"time"

	"github.com/cppla/board/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a 1-based page selector.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) offset() int { return (p.Page - 1) * p.PageSize }

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Pagination: Pagination{
			Page:       req.Page,
			PageSize:   req.PageSize,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(req.PageSize))),
		},
	}
}

// UserProfile is the externally visible view of a user. It never carries the password hash.
type UserProfile struct {
	ID              uint        `json:"id"`
	LoginID         string      `json:"login_id"`
	Nickname        string      `json:"nickname"`
	Email           string      `json:"email,omitempty"`
	Role            models.Role `json:"role"`
	ProfileImageURL string      `json:"profile_image_url"`
	CreatedAt       time.Time   `json:"created_at"`
}

func toProfile(u models.User) UserProfile {
	return UserProfile{
		ID:              u.ID,
		LoginID:         u.LoginID,
		Nickname:        u.Nickname,
		Email:           u.Email,
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
	}
}

type LoginResult struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int64       `json:"expires_in"`
	User      UserProfile `json:"user"`
}

type Author struct {
	ID              uint   `json:"id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profile_image_url"`
}

func toAuthor(u models.User) Author {
	return Author{ID: u.ID, Nickname: u.Nickname, ProfileImageURL: u.ProfileImageURL}
}

type Image struct {
	URL              string `json:"url"`
	OriginalFileName string `json:"original_file_name"`
	OrderIndex       int    `json:"order_index"`
}

type BoardSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Author       Author    `json:"author"`
	CategoryID   *uint     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BoardDetail struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       Author    `json:"author"`
	CategoryID   *uint     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	Liked        bool      `json:"liked"`
	Images       []Image   `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

type CommentView struct {
	ID        uint      `json:"id"`
	BoardID   uint      `json:"board_id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Images    []Image   `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func boardImages(images []models.BoardImage) []Image {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		out = append(out, Image{URL: img.ImageURL, OriginalFileName: img.OriginalFileName, OrderIndex: img.OrderIndex})
	}
	return out
}

func commentImages(images []models.CommentImage) []Image {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		out = append(out, Image{URL: img.ImageURL, OriginalFileName: img.OriginalFileName, OrderIndex: img.OrderIndex})
	}
	return out
}
