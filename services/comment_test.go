package services

import (
	"context"
	"testing"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bobby")
	board := env.createBoard(t, alice.ID, "thread")

	first, err := env.comments.Create(ctx, board.ID, CommentInput{Content: "first", ImageURLs: []string{"/images/x.png"}}, bob.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Author.Nickname != "bobby" || len(first.Images) != 1 {
		t.Fatalf("unexpected comment: %+v", first)
	}
	if _, err := env.comments.Create(ctx, board.ID, CommentInput{Content: "second"}, alice.ID); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := env.comments.List(ctx, board.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Content != "first" || list[1].Content != "second" {
		t.Fatalf("expected ascending order, got %+v", list)
	}

	_, err = env.comments.Update(ctx, board.ID, first.ID, CommentInput{Content: "edited"}, alice.ID)
	wantKind(t, err, utils.KindForbidden)

	edited, err := env.comments.Update(ctx, board.ID, first.ID, CommentInput{Content: "edited", ImageURLs: []string{"/images/y.png", "/images/z.png"}}, bob.ID)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if edited.Content != "edited" || len(edited.Images) != 2 || edited.Images[0].URL != "/images/y.png" {
		t.Fatalf("unexpected edit: %+v", edited)
	}

	wantKind(t, env.comments.Delete(ctx, board.ID, first.ID, alice.ID), utils.KindForbidden)
	if err := env.comments.Delete(ctx, board.ID, first.ID, bob.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := env.count(t, &models.CommentImage{}, "comment_id = ?", first.ID); n != 0 {
		t.Fatalf("comment images survived: %d", n)
	}
}

func TestCommentScopedToBoard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	one := env.createBoard(t, alice.ID, "one")
	two := env.createBoard(t, alice.ID, "two")

	comment, err := env.comments.Create(ctx, one.ID, CommentInput{Content: "on one"}, alice.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.comments.Update(ctx, two.ID, comment.ID, CommentInput{Content: "moved"}, alice.ID)
	wantKind(t, err, utils.KindNotFound)
	wantKind(t, env.comments.Delete(ctx, two.ID, comment.ID, alice.ID), utils.KindNotFound)

	_, err = env.comments.Create(ctx, 999, CommentInput{Content: "orphan"}, alice.ID)
	wantKind(t, err, utils.KindNotFound)
	_, err = env.comments.List(ctx, 999)
	wantKind(t, err, utils.KindNotFound)

	_, err = env.comments.Create(ctx, one.ID, CommentInput{Content: "<script></script>"}, alice.ID)
	wantKind(t, err, utils.KindValidation)
}

func TestAdminCanDeleteAnyComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	admin := env.signUp(t, "admin")
	env.setRole(t, admin.ID, models.RoleAdmin)
	board := env.createBoard(t, alice.ID, "thread")
	comment, err := env.comments.Create(ctx, board.ID, CommentInput{Content: "rude"}, alice.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.comments.Delete(ctx, board.ID, comment.ID, admin.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestCommentListByUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bobby")
	board := env.createBoard(t, alice.ID, "thread")
	for _, c := range []struct {
		author  uint
		content string
	}{{alice.ID, "a1"}, {bob.ID, "b1"}, {alice.ID, "a2"}} {
		if _, err := env.comments.Create(ctx, board.ID, CommentInput{Content: c.content}, c.author); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	page, err := env.comments.ListByUser(ctx, alice.ID, PageRequest{})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if page.Pagination.Total != 2 || page.Items[0].Content != "a2" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
