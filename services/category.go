package services

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

const (
	categoryCachePrefix = "cache:categories:"
	categoryListKey     = categoryCachePrefix + "list"
)

func categoryKey(id uint) string {
	return categoryCachePrefix + "id:" + strconv.FormatUint(uint64(id), 10)
}

type CategoryInput struct {
	Name         string
	Description  string
	DisplayOrder int
}

// CategoryUpdate carries optional changes; nil fields are left untouched.
type CategoryUpdate struct {
	Name         *string
	Description  *string
	DisplayOrder *int
}

// CategoryService manages categories. Callers are expected to have checked the manage capability.
type CategoryService struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewCategoryService(db *gorm.DB, cache *utils.Cache) *CategoryService {
	return &CategoryService{db: db, cache: cache}
}

// List returns all categories by display order.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.cache.GetJSON(ctx, categoryListKey, &categories) {
		return categories, nil
	}
	if err := dbCtx(s.db, ctx).Order("display_order ASC").Order("id ASC").Find(&categories).Error; err != nil {
		return nil, utils.Internal(err, "list categories")
	}
	if categories == nil {
		categories = []models.Category{}
	}
	s.cache.SetJSON(ctx, categoryListKey, categories, 0)
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if s.cache.GetJSON(ctx, categoryKey(id), &category) {
		return &category, nil
	}
	if err := dbCtx(s.db, ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, "category")
	}
	s.cache.SetJSON(ctx, categoryKey(id), category, 0)
	return &category, nil
}

// invalidate drops the cached list and every cached category.
func (s *CategoryService) invalidate(ctx context.Context) {
	s.cache.InvalidateByPrefix(ctx, categoryCachePrefix)
}

func cleanName(name string) (string, error) {
	name = utils.SanitizePlain(name)
	if name == "" {
		return "", utils.FieldErrors(map[string]string{"name": "name is required"})
	}
	if len([]rune(name)) > 50 {
		return "", utils.FieldErrors(map[string]string{"name": "name must be at most 50 characters"})
	}
	return name, nil
}

func cleanDescription(desc string) (string, error) {
	desc = utils.SanitizePlain(desc)
	if len([]rune(desc)) > 200 {
		return "", utils.FieldErrors(map[string]string{"description": "description must be at most 200 characters"})
	}
	return desc, nil
}

func nameTaken(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return utils.Internal(err, "check category name")
	}
	if count > 0 {
		return utils.Conflict("category %q already exists", name)
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return nil, err
	}
	category := models.Category{Name: name, Description: desc, DisplayOrder: in.DisplayOrder}
	err = dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		if err := nameTaken(tx, name, 0); err != nil {
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			if isDuplicate(err) {
				return utils.Conflict("category %q already exists", name)
			}
			return utils.Internal(err, "create category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &category, nil
}

// Update applies changes. The name is checked for uniqueness only when it changes.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryUpdate) (*models.Category, error) {
	var category models.Category
	err := dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFoundOr(err, "category")
		}
		if in.Name != nil {
			name, err := cleanName(*in.Name)
			if err != nil {
				return err
			}
			if name != category.Name {
				if err := nameTaken(tx, name, category.ID); err != nil {
					return err
				}
				category.Name = name
			}
		}
		if in.Description != nil {
			desc, err := cleanDescription(*in.Description)
			if err != nil {
				return err
			}
			category.Description = desc
		}
		if in.DisplayOrder != nil {
			category.DisplayOrder = *in.DisplayOrder
		}
		if err := tx.Save(&category).Error; err != nil {
			if isDuplicate(err) {
				return utils.Conflict("category %q already exists", category.Name)
			}
			return utils.Internal(err, "update category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &category, nil
}

// Delete clears the category from its boards, then removes it.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			return notFoundOr(err, "category")
		}
		if err := tx.Model(&models.Board{}).Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return utils.Internal(err, "uncategorize boards")
		}
		if err := tx.Delete(&category).Error; err != nil {
			return utils.Internal(err, "delete category")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}
