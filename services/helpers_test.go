package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/storage"
	"github.com/cppla/board/testutil"
	"github.com/cppla/board/utils"
)

type testEnv struct {
	db         *gorm.DB
	tokens     *TokenService
	files      *storage.Local
	users      *UserService
	boards     *BoardService
	comments   *CommentService
	categories *CategoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	files, err := storage.NewLocal(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	tokens := NewTokenService("test-secret", time.Hour)
	return &testEnv{
		db:         db,
		tokens:     tokens,
		files:      files,
		users:      NewUserService(db, tokens, files, nil),
		boards:     NewBoardService(db),
		comments:   NewCommentService(db),
		categories: NewCategoryService(db, utils.NewCache(nil)),
	}
}

func (e *testEnv) signUp(t *testing.T, loginID string) *UserProfile {
	t.Helper()
	profile, err := e.users.SignUp(context.Background(), SignUpInput{
		LoginID:  loginID,
		Password: "password123",
		Nickname: loginID,
		Email:    loginID + "@example.com",
	})
	if err != nil {
		t.Fatalf("SignUp(%s): %v", loginID, err)
	}
	return profile
}

func (e *testEnv) setRole(t *testing.T, userID uint, role models.Role) {
	t.Helper()
	if err := e.db.Model(&models.User{}).Where("id = ?", userID).Update("role", role).Error; err != nil {
		t.Fatalf("set role: %v", err)
	}
}

func (e *testEnv) createBoard(t *testing.T, authorID uint, title string, images ...string) *BoardDetail {
	t.Helper()
	board, err := e.boards.Create(context.Background(), BoardInput{
		Title:     title,
		Content:   "content of " + title,
		ImageURLs: images,
	}, authorID)
	if err != nil {
		t.Fatalf("Create board: %v", err)
	}
	return board
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func wantKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	if got := utils.KindOf(err); got != kind {
		t.Fatalf("expected error kind %d, got %d (%v)", kind, got, err)
	}
}
