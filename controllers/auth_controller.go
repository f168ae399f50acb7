package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// TokenRevoker records logged out tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

// AuthController handles sign up, login and the caller's own account.
type AuthController struct {
	users    *services.UserService
	boards   *services.BoardService
	comments *services.CommentService
	revoker  TokenRevoker
}

func NewAuthController(users *services.UserService, boards *services.BoardService, comments *services.CommentService, revoker TokenRevoker) *AuthController {
	return &AuthController{users: users, boards: boards, comments: comments, revoker: revoker}
}

// SignUp registers a new account.
func (a *AuthController) SignUp(ctx *gin.Context) {
	var req struct {
		LoginID  string `json:"login_id" binding:"required,min=4,max=20,alphanum"`
		Password string `json:"password" binding:"required,min=8,max=72"`
		Nickname string `json:"nickname" binding:"required,min=2,max=20"`
		Email    string `json:"email" binding:"required,email,max=255"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	profile, err := a.users.SignUp(ctx.Request.Context(), services.SignUpInput{
		LoginID:  req.LoginID,
		Password: req.Password,
		Nickname: req.Nickname,
		Email:    req.Email,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, profile)
}

func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		LoginID  string `json:"login_id" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	result, err := a.users.Login(ctx.Request.Context(), req.LoginID, req.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

// Logout revokes the presented token until it would have expired anyway.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if token == "" {
		utils.Fail(ctx, utils.Unauthorized("authentication required"))
		return
	}
	if err := a.revoker.Revoke(ctx.Request.Context(), token, tokenExpiry(ctx)); err != nil {
		utils.Fail(ctx, utils.Internal(err, "revoke token"))
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

func (a *AuthController) Me(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	profile, err := a.users.Get(ctx.Request.Context(), userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}

// GetUser returns a public profile.
func (a *AuthController) GetUser(ctx *gin.Context) {
	id, err := pathID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	profile, err := a.users.GetPublic(ctx.Request.Context(), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}

// UpdateMe changes nickname, email or profile image url. Omitted fields are kept.
func (a *AuthController) UpdateMe(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req struct {
		Nickname        *string `json:"nickname" binding:"omitempty,min=2,max=20"`
		Email           *string `json:"email" binding:"omitempty,email,max=255"`
		ProfileImageURL *string `json:"profile_image_url" binding:"omitempty,max=512"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	profile, err := a.users.UpdateProfile(ctx.Request.Context(), userID, services.ProfileUpdate{
		Nickname:        req.Nickname,
		Email:           req.Email,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}

func (a *AuthController) ChangePassword(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, bindError(err))
		return
	}
	if err := a.users.ChangePassword(ctx.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "password changed"})
}

// tokenExpiry reads the expiry of the caller's token, falling back to a day from now.
func tokenExpiry(ctx *gin.Context) time.Time {
	claims, _ := ctx.Get(middleware.ContextClaimsKey)
	if c, ok := claims.(*services.Claims); ok && c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Now().Add(24 * time.Hour)
}

// DeleteMe removes the account. The password comes from the JSON body or the password query parameter.
func (a *AuthController) DeleteMe(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Fail(ctx, bindError(err))
			return
		}
	}
	if req.Password == "" {
		req.Password = ctx.Query("password")
	}
	if req.Password == "" {
		utils.Fail(ctx, utils.FieldErrors(map[string]string{"password": "is required"}))
		return
	}
	if err := a.users.DeleteAccount(ctx.Request.Context(), userID, req.Password); err != nil {
		utils.Fail(ctx, err)
		return
	}
	if token := ctx.GetString(middleware.ContextTokenKey); token != "" {
		_ = a.revoker.Revoke(ctx.Request.Context(), token, tokenExpiry(ctx))
	}
	utils.Success(ctx, gin.H{"message": "account deleted"})
}

// UploadProfileImage replaces the caller's profile picture with the multipart "file" part.
func (a *AuthController) UploadProfileImage(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Fail(ctx, utils.FieldErrors(map[string]string{"file": "is required"}))
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.Fail(ctx, utils.Internal(err, "open upload"))
		return
	}
	defer file.Close()

	profile, err := a.users.UpdateProfileImage(ctx.Request.Context(), userID, header.Filename, header.Size, file)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}

func (a *AuthController) MyBoards(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	page, err := a.boards.ListByUser(ctx.Request.Context(), userID, parsePagination(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

func (a *AuthController) MyComments(ctx *gin.Context) {
	userID, err := callerID(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	page, err := a.comments.ListByUser(ctx.Request.Context(), userID, parsePagination(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}
