package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Category partitions boards. Deleting a category leaves its boards uncategorized.
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Slug         string    `gorm:"size:80;not null;uniqueIndex" json:"slug"`
	Description  string    `gorm:"size:200" json:"description"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeSave keeps the slug in step with the name.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Slug = slug.Make(c.Name)
	if c.Slug == "" {
		// names made only of symbols still need a unique, non-empty slug
		c.Slug = slug.Make("category " + c.Name + " " + time.Now().Format("20060102150405.000000"))
	}
	return nil
}

// All returns every model that is migrated at startup.
func All() []interface{} {
	return []interface{}{
		&User{}, &Category{}, &Board{}, &BoardImage{}, &BoardLike{}, &Comment{}, &CommentImage{},
	}
}
