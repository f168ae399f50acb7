package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

type commentRequest struct {
	Content   string   `json:"content" binding:"required,max=5000"`
	ImageURLs []string `json:"image_urls" binding:"omitempty,max=20,dive,required,max=1024"`
}

// CommentController handles comments nested under /boards/:id/comments.
type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

func (c *CommentController) Create(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	boardID, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	comment, err := c.comments.Create(ctx.Request.Context(), boardID,
		services.CommentInput{Content: req.Content, ImageURLs: req.ImageURLs}, userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, comment)
}

func (c *CommentController) List(ctx *gin.Context) {
	boardID, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	comments, err := c.comments.List(ctx.Request.Context(), boardID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, comments)
}

func (c *CommentController) Update(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	boardID, commentID, err := commentPath(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	comment, err := c.comments.Update(ctx.Request.Context(), boardID, commentID,
		services.CommentInput{Content: req.Content, ImageURLs: req.ImageURLs}, userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, comment)
}

func (c *CommentController) Delete(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	boardID, commentID, err := commentPath(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := c.comments.Delete(ctx.Request.Context(), boardID, commentID, userID); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func commentPath(ctx *gin.Context) (uint, uint, error) {
	boardID, err := pathID(ctx, "id")
	if err != nil {
		return 0, 0, err
	}
	commentID, err := pathID(ctx, "commentId")
	if err != nil {
		return 0, 0, err
	}
	return boardID, commentID, nil
}
