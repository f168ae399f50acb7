package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

func TestSignUpReturnsProfileWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	profile, err := env.users.SignUp(context.Background(), SignUpInput{
		LoginID: "alice", Password: "password123", Nickname: "alice", Email: "a@x.com",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if profile.ID == 0 || profile.LoginID != "alice" || profile.Role != models.RoleUser {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	b, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(b)), "password") {
		t.Fatalf("profile leaks password: %s", b)
	}

	var stored models.User
	if err := env.db.First(&stored, profile.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.PasswordHash == "password123" || !utils.CheckPassword(stored.PasswordHash, "password123") {
		t.Fatalf("password not stored as bcrypt hash")
	}
}

func TestSignUpConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "alice")

	cases := []struct {
		name string
		in   SignUpInput
	}{
		{"login id", SignUpInput{LoginID: "alice", Password: "password123", Nickname: "other", Email: "o@x.com"}},
		{"email", SignUpInput{LoginID: "other", Password: "password123", Nickname: "other", Email: "alice@example.com"}},
		{"email case", SignUpInput{LoginID: "other", Password: "password123", Nickname: "other", Email: "ALICE@example.com"}},
		{"nickname", SignUpInput{LoginID: "other", Password: "password123", Nickname: "alice", Email: "o@x.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.SignUp(context.Background(), tc.in)
			wantKind(t, err, utils.KindConflict)
		})
	}
	if n := env.count(t, &models.User{}, "1 = 1"); n != 1 {
		t.Fatalf("expected 1 user after conflicts, got %d", n)
	}
}

func TestLoginErrorsAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, "alice")
	ctx := context.Background()

	result, err := env.users.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, ok := env.tokens.Validate(result.Token)
	if !ok || claims.UserID != user.ID {
		t.Fatalf("token does not resolve to user %d: %+v", user.ID, claims)
	}
	if result.TokenType != "Bearer" || result.ExpiresIn != 3600 {
		t.Fatalf("unexpected token metadata: %+v", result)
	}

	_, wrongPassword := env.users.Login(ctx, "alice", "nope")
	_, unknownUser := env.users.Login(ctx, "nobody", "password123")
	wantKind(t, wrongPassword, utils.KindUnauthorized)
	wantKind(t, unknownUser, utils.KindUnauthorized)
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("login errors differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp(t, "alice")
	env.signUp(t, "bobby")
	ctx := context.Background()

	same := "alice"
	if _, err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Nickname: &same}); err != nil {
		t.Fatalf("unchanged nickname should not conflict: %v", err)
	}

	taken := "bobby"
	_, err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Nickname: &taken})
	wantKind(t, err, utils.KindConflict)

	takenEmail := "bobby@example.com"
	_, err = env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: &takenEmail})
	wantKind(t, err, utils.KindConflict)

	nick := "Alice W"
	email := "alice.w@example.com"
	updated, err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Nickname: &nick, Email: &email})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Nickname != nick || updated.Email != email {
		t.Fatalf("unexpected profile: %+v", updated)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp(t, "alice")
	ctx := context.Background()

	wantKind(t, env.users.ChangePassword(ctx, alice.ID, "wrong", "newpassword1"), utils.KindUnauthorized)
	wantKind(t, env.users.ChangePassword(ctx, alice.ID, "password123", "password123"), utils.KindValidation)

	if err := env.users.ChangePassword(ctx, alice.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.users.Login(ctx, "alice", "password123"); err == nil {
		t.Fatalf("old password still accepted")
	}
	if _, err := env.users.Login(ctx, "alice", "newpassword1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bobby")

	aliceBoard := env.createBoard(t, alice.ID, "alice board", "/images/a.png")
	bobBoard := env.createBoard(t, bob.ID, "bob board")

	if _, err := env.comments.Create(ctx, aliceBoard.ID, CommentInput{Content: "bob on alice", ImageURLs: []string{"/images/c.png"}}, bob.ID); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := env.comments.Create(ctx, bobBoard.ID, CommentInput{Content: "alice on bob", ImageURLs: []string{"/images/d.png"}}, alice.ID); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := env.boards.ToggleLike(ctx, bobBoard.ID, alice.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := env.boards.ToggleLike(ctx, aliceBoard.ID, bob.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	wantKind(t, env.users.DeleteAccount(ctx, alice.ID, "wrong"), utils.KindUnauthorized)

	if err := env.users.DeleteAccount(ctx, alice.ID, "password123"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if n := env.count(t, &models.User{}, "id = ?", alice.ID); n != 0 {
		t.Fatalf("user still present")
	}
	if n := env.count(t, &models.Board{}, "user_id = ?", alice.ID); n != 0 {
		t.Fatalf("boards still present: %d", n)
	}
	if n := env.count(t, &models.Comment{}, "user_id = ? OR board_id = ?", alice.ID, aliceBoard.ID); n != 0 {
		t.Fatalf("comments still present: %d", n)
	}
	if n := env.count(t, &models.CommentImage{}, "1 = 1"); n != 0 {
		t.Fatalf("comment images still present: %d", n)
	}
	if n := env.count(t, &models.BoardImage{}, "board_id = ?", aliceBoard.ID); n != 0 {
		t.Fatalf("board images still present: %d", n)
	}
	if n := env.count(t, &models.BoardLike{}, "1 = 1"); n != 0 {
		t.Fatalf("likes still present: %d", n)
	}

	var remaining models.Board
	if err := env.db.First(&remaining, bobBoard.ID).Error; err != nil {
		t.Fatalf("bob's board: %v", err)
	}
	if remaining.LikeCount != 0 {
		t.Fatalf("expected like count 0 on bob's board, got %d", remaining.LikeCount)
	}
}

func TestUpdateProfileImageReplacesFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")

	first, err := env.users.UpdateProfileImage(ctx, alice.ID, "me.png", 3, strings.NewReader("one"))
	if err != nil {
		t.Fatalf("UpdateProfileImage: %v", err)
	}
	if !strings.HasPrefix(first.ProfileImageURL, "/profiles/") {
		t.Fatalf("unexpected url %q", first.ProfileImageURL)
	}
	second, err := env.users.UpdateProfileImage(ctx, alice.ID, "me2.jpg", 3, strings.NewReader("two"))
	if err != nil {
		t.Fatalf("UpdateProfileImage: %v", err)
	}
	if second.ProfileImageURL == first.ProfileImageURL {
		t.Fatalf("expected a new url")
	}
	got, err := env.users.Get(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ProfileImageURL != second.ProfileImageURL {
		t.Fatalf("profile not updated: %q", got.ProfileImageURL)
	}

	_, err = env.users.UpdateProfileImage(ctx, alice.ID, "evil.exe", 3, strings.NewReader("bad"))
	wantKind(t, err, utils.KindValidation)
}

func TestRoleOf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp(t, "alice")
	env.setRole(t, alice.ID, models.RoleAdmin)

	role, err := env.users.RoleOf(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("RoleOf: %v", err)
	}
	if role != models.RoleAdmin {
		t.Fatalf("expected admin, got %s", role)
	}
	_, err = env.users.RoleOf(context.Background(), 999)
	wantKind(t, err, utils.KindNotFound)
}

func TestSignUpPromotesConfiguredAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.users = NewUserService(env.db, env.tokens, env.files, func(loginID string) bool {
		return strings.EqualFold(loginID, "boss")
	})
	ctx := context.Background()

	boss := env.signUp(t, "Boss")
	if boss.Role != models.RoleAdmin {
		t.Fatalf("configured admin signed up as %s", boss.Role)
	}
	role, err := env.users.RoleOf(ctx, boss.ID)
	if err != nil {
		t.Fatalf("RoleOf: %v", err)
	}
	if role != models.RoleAdmin {
		t.Fatalf("expected admin, got %s", role)
	}

	alice := env.signUp(t, "alice")
	if alice.Role != models.RoleUser {
		t.Fatalf("expected user, got %s", alice.Role)
	}
}

func TestRoleOfUnknownRoleFallsBackToUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bobby")
	env.setRole(t, bob.ID, models.Role("superuser"))

	role, err := env.users.RoleOf(ctx, bob.ID)
	if err != nil {
		t.Fatalf("RoleOf: %v", err)
	}
	if role != models.RoleUser {
		t.Fatalf("expected fallback to user, got %s", role)
	}

	board := env.createBoard(t, alice.ID, "owned by alice")
	err = env.boards.Delete(ctx, board.ID, bob.ID)
	wantKind(t, err, utils.KindForbidden)
}
