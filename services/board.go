package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// decrementFloor lowers like_count by one without going below zero.
var decrementFloor = gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")

type BoardInput struct {
	Title      string
	Content    string
	CategoryID *uint
	ImageURLs  []string
}

// BoardService manages boards, their images and likes.
type BoardService struct {
	db *gorm.DB
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

func (in BoardInput) clean() (BoardInput, error) {
	in.Title = utils.SanitizePlain(in.Title)
	in.Content = utils.Sanitize(in.Content)
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "title cannot be empty"
	} else if len([]rune(in.Title)) > 200 {
		fields["title"] = "title must be at most 200 characters"
	}
	if in.Content == "" {
		fields["content"] = "content cannot be empty"
	}
	if len(fields) > 0 {
		return in, utils.FieldErrors(fields)
	}
	return in, checkImageURLs(in.ImageURLs)
}

// Create stores a board with zero counters followed by its images in submitted order.
func (s *BoardService) Create(ctx context.Context, in BoardInput, authorID uint) (*BoardDetail, error) {
	in, err := in.clean()
	if err != nil {
		return nil, err
	}
	board := models.Board{
		UserID:     authorID,
		CategoryID: in.CategoryID,
		Title:      in.Title,
		Content:    in.Content,
	}
	err = dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, in.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&board).Error; err != nil {
			return utils.Internal(err, "create board")
		}
		return replaceBoardImages(tx, board.ID, in.ImageURLs)
	})
	if err != nil {
		return nil, err
	}
	return s.detail(dbCtx(s.db, ctx), board.ID, authorID)
}

func checkCategory(tx *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return utils.Internal(err, "check category")
	}
	if count == 0 {
		return utils.NotFound("category not found")
	}
	return nil
}

func replaceBoardImages(tx *gorm.DB, boardID uint, urls []string) error {
	if err := tx.Where("board_id = ?", boardID).Delete(&models.BoardImage{}).Error; err != nil {
		return utils.Internal(err, "delete board images")
	}
	if len(urls) == 0 {
		return nil
	}
	images := make([]models.BoardImage, 0, len(urls))
	for i, u := range urls {
		images = append(images, models.BoardImage{
			BoardID:          boardID,
			ImageURL:         strings.TrimSpace(u),
			OriginalFileName: originalName(u),
			OrderIndex:       i,
		})
	}
	if err := tx.Create(&images).Error; err != nil {
		return utils.Internal(err, "create board images")
	}
	return nil
}

// Get returns a board and counts the read. Every call increments the view counter.
func (s *BoardService) Get(ctx context.Context, boardID, viewerID uint) (*BoardDetail, error) {
	db := dbCtx(s.db, ctx)
	res := db.Model(&models.Board{}).Where("id = ?", boardID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return nil, utils.Internal(res.Error, "increment view count")
	}
	if res.RowsAffected == 0 {
		return nil, utils.NotFound("board not found")
	}
	return s.detail(db, boardID, viewerID)
}

func (s *BoardService) detail(db *gorm.DB, boardID, viewerID uint) (*BoardDetail, error) {
	var board models.Board
	err := db.Preload("User").Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		First(&board, boardID).Error
	if err != nil {
		return nil, notFoundOr(err, "board")
	}

	var commentCount int64
	if err := db.Model(&models.Comment{}).Where("board_id = ?", boardID).Count(&commentCount).Error; err != nil {
		return nil, utils.Internal(err, "count comments")
	}

	liked := false
	if viewerID != 0 {
		var n int64
		if err := db.Model(&models.BoardLike{}).Where("board_id = ? AND user_id = ?", boardID, viewerID).Count(&n).Error; err != nil {
			return nil, utils.Internal(err, "check like")
		}
		liked = n > 0
	}

	detail := &BoardDetail{
		ID:           board.ID,
		Title:        board.Title,
		Content:      board.Content,
		Author:       toAuthor(board.User),
		CategoryID:   board.CategoryID,
		ViewCount:    board.ViewCount,
		LikeCount:    board.LikeCount,
		CommentCount: commentCount,
		Liked:        liked,
		Images:       boardImages(board.Images),
		CreatedAt:    board.CreatedAt,
		UpdatedAt:    board.UpdatedAt,
	}
	if board.Category != nil {
		detail.CategoryName = board.Category.Name
	}
	return detail, nil
}

// List returns all boards, newest first.
func (s *BoardService) List(ctx context.Context, page PageRequest) (Page[BoardSummary], error) {
	return s.page(dbCtx(s.db, ctx).Model(&models.Board{}), page)
}

// Search matches keyword as a substring of the title or the content.
func (s *BoardService) Search(ctx context.Context, keyword string, page PageRequest) (Page[BoardSummary], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Page[BoardSummary]{}, utils.FieldErrors(map[string]string{"keyword": "keyword is required"})
	}
	like := "%" + escapeLike(keyword) + "%"
	q := dbCtx(s.db, ctx).Model(&models.Board{}).
		Where("title LIKE ? ESCAPE '!' OR content LIKE ? ESCAPE '!'", like, like)
	return s.page(q, page)
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// ListByCategory returns the boards of one category. Unknown categories are not found.
func (s *BoardService) ListByCategory(ctx context.Context, categoryID uint, page PageRequest) (Page[BoardSummary], error) {
	db := dbCtx(s.db, ctx)
	if err := checkCategory(db, &categoryID); err != nil {
		return Page[BoardSummary]{}, err
	}
	return s.page(db.Model(&models.Board{}).Where("category_id = ?", categoryID), page)
}

// ListByUser returns the boards written by a user.
func (s *BoardService) ListByUser(ctx context.Context, userID uint, page PageRequest) (Page[BoardSummary], error) {
	return s.page(dbCtx(s.db, ctx).Model(&models.Board{}).Where("user_id = ?", userID), page)
}

func (s *BoardService) page(q *gorm.DB, req PageRequest) (Page[BoardSummary], error) {
	req = req.normalize()
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[BoardSummary]{}, utils.Internal(err, "count boards")
	}

	var boards []models.Board
	err := q.Session(&gorm.Session{}).Preload("User").Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Offset(req.offset()).Limit(req.PageSize).
		Find(&boards).Error
	if err != nil {
		return Page[BoardSummary]{}, utils.Internal(err, "list boards")
	}
	if len(boards) == 0 {
		return newPage[BoardSummary](nil, req, total), nil
	}

	ids := make([]uint, 0, len(boards))
	for _, b := range boards {
		ids = append(ids, b.ID)
	}
	db := q.Session(&gorm.Session{NewDB: true})

	type countRow struct {
		BoardID uint
		Count   int64
	}
	var counts []countRow
	if err := db.Model(&models.Comment{}).Select("board_id, COUNT(*) AS count").
		Where("board_id IN ?", ids).Group("board_id").Scan(&counts).Error; err != nil {
		return Page[BoardSummary]{}, utils.Internal(err, "count comments")
	}
	commentCounts := make(map[uint]int64, len(counts))
	for _, c := range counts {
		commentCounts[c.BoardID] = c.Count
	}

	var images []models.BoardImage
	if err := db.Where("board_id IN ?", ids).Order("board_id, order_index ASC").Find(&images).Error; err != nil {
		return Page[BoardSummary]{}, utils.Internal(err, "load thumbnails")
	}
	thumbs := make(map[uint]string, len(ids))
	for _, img := range images {
		if _, ok := thumbs[img.BoardID]; !ok {
			thumbs[img.BoardID] = img.ImageURL
		}
	}

	items := make([]BoardSummary, 0, len(boards))
	for _, b := range boards {
		item := BoardSummary{
			ID:           b.ID,
			Title:        b.Title,
			Author:       toAuthor(b.User),
			CategoryID:   b.CategoryID,
			ViewCount:    b.ViewCount,
			LikeCount:    b.LikeCount,
			CommentCount: commentCounts[b.ID],
			ThumbnailURL: thumbs[b.ID],
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    b.UpdatedAt,
		}
		if b.Category != nil {
			item.CategoryName = b.Category.Name
		}
		items = append(items, item)
	}
	return newPage(items, req, total), nil
}

// Update rewrites a board owned by the caller. The image set is replaced as a whole.
func (s *BoardService) Update(ctx context.Context, boardID uint, in BoardInput, callerID uint) (*BoardDetail, error) {
	in, err := in.clean()
	if err != nil {
		return nil, err
	}
	err = dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&board, boardID).Error; err != nil {
			return notFoundOr(err, "board")
		}
		if board.UserID != callerID {
			return utils.Forbidden("you can only update your own boards")
		}
		if err := checkCategory(tx, in.CategoryID); err != nil {
			return err
		}
		err := tx.Model(&board).Select("title", "content", "category_id", "updated_at").Updates(map[string]interface{}{
			"title":       in.Title,
			"content":     in.Content,
			"category_id": in.CategoryID,
		}).Error
		if err != nil {
			return utils.Internal(err, "update board")
		}
		return replaceBoardImages(tx, board.ID, in.ImageURLs)
	})
	if err != nil {
		return nil, err
	}
	return s.detail(dbCtx(s.db, ctx), boardID, callerID)
}

// Delete removes a board and everything attached to it. Owners and moderators may delete.
func (s *BoardService) Delete(ctx context.Context, boardID, callerID uint) error {
	return dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Select("id", "user_id").First(&board, boardID).Error; err != nil {
			return notFoundOr(err, "board")
		}
		if board.UserID != callerID {
			ok, err := canModerate(tx, callerID)
			if err != nil {
				return err
			}
			if !ok {
				return utils.Forbidden("you can only delete your own boards")
			}
		}
		return deleteBoardsTx(tx, []uint{board.ID})
	})
}

// deleteBoardsTx cascades in order: comment images, comments, board images, likes, boards.
func deleteBoardsTx(tx *gorm.DB, boardIDs []uint) error {
	if len(boardIDs) == 0 {
		return nil
	}
	commentIDs := tx.Model(&models.Comment{}).Select("id").Where("board_id IN ?", boardIDs)
	steps := []struct {
		what string
		run  func() error
	}{
		{"comment images", func() error {
			return tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentImage{}).Error
		}},
		{"comments", func() error { return tx.Where("board_id IN ?", boardIDs).Delete(&models.Comment{}).Error }},
		{"board images", func() error { return tx.Where("board_id IN ?", boardIDs).Delete(&models.BoardImage{}).Error }},
		{"likes", func() error { return tx.Where("board_id IN ?", boardIDs).Delete(&models.BoardLike{}).Error }},
		{"boards", func() error { return tx.Where("id IN ?", boardIDs).Delete(&models.Board{}).Error }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return utils.Internal(err, "delete %s", step.what)
		}
	}
	return nil
}

// ToggleLike flips the caller's like on a board inside one transaction.
// A concurrent insert of the same (board, user) pair loses on the unique index and is treated as liked.
func (s *BoardService) ToggleLike(ctx context.Context, boardID, callerID uint) (*LikeResult, error) {
	result := &LikeResult{}
	err := dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&board, boardID).Error; err != nil {
			return notFoundOr(err, "board")
		}

		res := tx.Where("board_id = ? AND user_id = ?", boardID, callerID).Delete(&models.BoardLike{})
		if res.Error != nil {
			return utils.Internal(res.Error, "delete like")
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&models.Board{}).Where("id = ?", boardID).
				UpdateColumn("like_count", decrementFloor).Error; err != nil {
				return utils.Internal(err, "decrement like count")
			}
			result.Liked = false
		} else {
			inserted, err := insertLike(tx, boardID, callerID)
			if err != nil {
				return err
			}
			if inserted {
				if err := tx.Model(&models.Board{}).Where("id = ?", boardID).
					UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
					return utils.Internal(err, "increment like count")
				}
			}
			result.Liked = true
		}

		if err := tx.Model(&models.Board{}).Select("like_count").Where("id = ?", boardID).Scan(&result.LikeCount).Error; err != nil {
			return utils.Internal(err, "read like count")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// insertLike creates the like inside a savepoint so a unique violation does not abort the outer transaction.
func insertLike(tx *gorm.DB, boardID, userID uint) (bool, error) {
	err := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&models.BoardLike{BoardID: boardID, UserID: userID}).Error
	})
	if err == nil {
		return true, nil
	}
	if isDuplicate(err) {
		return false, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, utils.NotFound("board not found")
	}
	return false, utils.Internal(err, "create like")
}
