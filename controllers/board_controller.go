package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

type boardRequest struct {
	Title      string   `json:"title" binding:"required,max=200"`
	Content    string   `json:"content" binding:"required"`
	CategoryID *uint    `json:"category_id"`
	ImageURLs  []string `json:"image_urls" binding:"omitempty,max=20,dive,required,max=1024"`
}

func (r boardRequest) input() services.BoardInput {
	return services.BoardInput{
		Title:      r.Title,
		Content:    r.Content,
		CategoryID: r.CategoryID,
		ImageURLs:  r.ImageURLs,
	}
}

// BoardController manages boards and likes.
type BoardController struct {
	boards *services.BoardService
}

func NewBoardController(boards *services.BoardService) *BoardController {
	return &BoardController{boards: boards}
}

func (b *BoardController) Create(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req boardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	board, err := b.boards.Create(ctx.Request.Context(), req.input(), userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, board)
}

func (b *BoardController) List(ctx *gin.Context) {
	page, err := b.boards.List(ctx.Request.Context(), parsePagination(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

// Get returns board detail; anonymous readers get liked=false.
func (b *BoardController) Get(ctx *gin.Context) {
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	viewerID, _ := middleware.UserID(ctx)
	board, err := b.boards.Get(ctx.Request.Context(), id, viewerID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, board)
}

func (b *BoardController) Update(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req boardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	board, err := b.boards.Update(ctx.Request.Context(), id, req.input(), userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, board)
}

func (b *BoardController) Delete(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := b.boards.Delete(ctx.Request.Context(), id, userID); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "board deleted"})
}

func (b *BoardController) ToggleLike(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	result, err := b.boards.ToggleLike(ctx.Request.Context(), id, userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

func (b *BoardController) Search(ctx *gin.Context) {
	page, err := b.boards.Search(ctx.Request.Context(), ctx.Query("keyword"), parsePagination(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

func (b *BoardController) ListByCategory(ctx *gin.Context) {
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	page, err := b.boards.ListByCategory(ctx.Request.Context(), id, parsePagination(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}
