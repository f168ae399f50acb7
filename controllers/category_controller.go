package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// CategoryController exposes categories. Mutating routes are guarded by the manage capability in the router.
type CategoryController struct {
	categories *services.CategoryService
}

func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

func (c *CategoryController) List(ctx *gin.Context) {
	categories, err := c.categories.List(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, categories)
}

func (c *CategoryController) Get(ctx *gin.Context) {
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	category, err := c.categories.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, category)
}

func (c *CategoryController) Create(ctx *gin.Context) {
	var req struct {
		Name         string `json:"name" binding:"required,max=50"`
		Description  string `json:"description" binding:"max=200"`
		DisplayOrder int    `json:"display_order" binding:"gte=0"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	category, err := c.categories.Create(ctx.Request.Context(), services.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, category)
}

func (c *CategoryController) Update(ctx *gin.Context) {
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req struct {
		Name         *string `json:"name" binding:"omitempty,max=50"`
		Description  *string `json:"description" binding:"omitempty,max=200"`
		DisplayOrder *int    `json:"display_order" binding:"omitempty,gte=0"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	category, err := c.categories.Update(ctx.Request.Context(), id, services.CategoryUpdate{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, category)
}

func (c *CategoryController) Delete(ctx *gin.Context) {
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := c.categories.Delete(ctx.Request.Context(), id); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}
