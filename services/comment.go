package services

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

type CommentInput struct {
	Content   string
	ImageURLs []string
}

func (in CommentInput) clean() (CommentInput, error) {
	in.Content = utils.Sanitize(in.Content)
	if in.Content == "" {
		return in, utils.FieldErrors(map[string]string{"content": "content cannot be empty"})
	}
	return in, checkImageURLs(in.ImageURLs)
}

// CommentService manages comments. Every operation is scoped to the parent board.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func boardExists(db *gorm.DB, boardID uint) error {
	var count int64
	if err := db.Model(&models.Board{}).Where("id = ?", boardID).Count(&count).Error; err != nil {
		return utils.Internal(err, "check board")
	}
	if count == 0 {
		return utils.NotFound("board not found")
	}
	return nil
}

// Create adds a comment with its images to a board.
func (s *CommentService) Create(ctx context.Context, boardID uint, in CommentInput, authorID uint) (*CommentView, error) {
	in, err := in.clean()
	if err != nil {
		return nil, err
	}
	comment := models.Comment{BoardID: boardID, UserID: authorID, Content: in.Content}
	err = dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		if err := boardExists(tx, boardID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return utils.Internal(err, "create comment")
		}
		return replaceCommentImages(tx, comment.ID, in.ImageURLs)
	})
	if err != nil {
		return nil, err
	}
	return s.view(dbCtx(s.db, ctx), boardID, comment.ID)
}

func replaceCommentImages(tx *gorm.DB, commentID uint, urls []string) error {
	if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentImage{}).Error; err != nil {
		return utils.Internal(err, "delete comment images")
	}
	if len(urls) == 0 {
		return nil
	}
	images := make([]models.CommentImage, 0, len(urls))
	for i, u := range urls {
		images = append(images, models.CommentImage{
			CommentID:        commentID,
			ImageURL:         strings.TrimSpace(u),
			OriginalFileName: originalName(u),
			OrderIndex:       i,
		})
	}
	if err := tx.Create(&images).Error; err != nil {
		return utils.Internal(err, "create comment images")
	}
	return nil
}

func withCommentRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") })
}

func (s *CommentService) view(db *gorm.DB, boardID, commentID uint) (*CommentView, error) {
	var comment models.Comment
	if err := withCommentRelations(db).Where("board_id = ?", boardID).First(&comment, commentID).Error; err != nil {
		return nil, notFoundOr(err, "comment")
	}
	v := toCommentView(comment)
	return &v, nil
}

func toCommentView(c models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		BoardID:   c.BoardID,
		Content:   c.Content,
		Author:    toAuthor(c.User),
		Images:    commentImages(c.Images),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// List returns the comments of a board, oldest first.
func (s *CommentService) List(ctx context.Context, boardID uint) ([]CommentView, error) {
	db := dbCtx(s.db, ctx)
	if err := boardExists(db, boardID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := withCommentRelations(db).Where("board_id = ?", boardID).
		Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, utils.Internal(err, "list comments")
	}
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentView(c))
	}
	return out, nil
}

// ListByUser returns the comments written by a user, newest first.
func (s *CommentService) ListByUser(ctx context.Context, userID uint, page PageRequest) (Page[CommentView], error) {
	page = page.normalize()
	db := dbCtx(s.db, ctx)
	var total int64
	if err := db.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return Page[CommentView]{}, utils.Internal(err, "count comments")
	}
	var comments []models.Comment
	if err := withCommentRelations(db).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(page.offset()).Limit(page.PageSize).Find(&comments).Error; err != nil {
		return Page[CommentView]{}, utils.Internal(err, "list comments")
	}
	items := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		items = append(items, toCommentView(c))
	}
	return newPage(items, page, total), nil
}

// Update rewrites a comment owned by the caller and replaces its images.
func (s *CommentService) Update(ctx context.Context, boardID, commentID uint, in CommentInput, callerID uint) (*CommentView, error) {
	in, err := in.clean()
	if err != nil {
		return nil, err
	}
	err = dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("board_id = ?", boardID).First(&comment, commentID).Error; err != nil {
			return notFoundOr(err, "comment")
		}
		if comment.UserID != callerID {
			return utils.Forbidden("you can only update your own comments")
		}
		if err := tx.Model(&comment).Update("content", in.Content).Error; err != nil {
			return utils.Internal(err, "update comment")
		}
		return replaceCommentImages(tx, comment.ID, in.ImageURLs)
	})
	if err != nil {
		return nil, err
	}
	return s.view(dbCtx(s.db, ctx), boardID, commentID)
}

// Delete removes a comment and its images. Owners and moderators may delete.
func (s *CommentService) Delete(ctx context.Context, boardID, commentID, callerID uint) error {
	return dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("board_id = ?", boardID).First(&comment, commentID).Error; err != nil {
			return notFoundOr(err, "comment")
		}
		if comment.UserID != callerID {
			ok, err := canModerate(tx, callerID)
			if err != nil {
				return err
			}
			if !ok {
				return utils.Forbidden("you can only delete your own comments")
			}
		}
		return deleteCommentsTx(tx, []uint{comment.ID})
	})
}

// deleteCommentsTx removes comment images before the comments themselves.
func deleteCommentsTx(tx *gorm.DB, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentImage{}).Error; err != nil {
		return utils.Internal(err, "delete comment images")
	}
	if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
		return utils.Internal(err, "delete comments")
	}
	return nil
}
