package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/storage"
	"github.com/cppla/board/utils"
)

// ErrInvalidCredentials is returned for both unknown login ids and wrong passwords.
var ErrInvalidCredentials = utils.Unauthorized("invalid login id or password")

type SignUpInput struct {
	LoginID  string
	Password string
	Nickname string
	Email    string
}

// ProfileUpdate carries optional changes; nil fields are left untouched.
type ProfileUpdate struct {
	Nickname        *string
	Email           *string
	ProfileImageURL *string
}

// UserService owns accounts, credentials and profile data.
type UserService struct {
	db     *gorm.DB
	tokens *TokenService
	files  storage.Storage
	// isAdmin reports configured admin login ids; nil means none.
	isAdmin func(loginID string) bool
}

func NewUserService(db *gorm.DB, tokens *TokenService, files storage.Storage, isAdmin func(string) bool) *UserService {
	return &UserService{db: db, tokens: tokens, files: files, isAdmin: isAdmin}
}

// SignUp registers a user with the default role, or admin when the login id is configured as one.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*UserProfile, error) {
	loginID := strings.TrimSpace(in.LoginID)
	nickname := utils.SanitizePlain(in.Nickname)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if nickname == "" {
		return nil, utils.FieldErrors(map[string]string{"nickname": "nickname is required"})
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, utils.FieldErrors(map[string]string{"password": err.Error()})
		}
		return nil, utils.Internal(err, "hash password")
	}

	user := models.User{
		LoginID:      loginID,
		PasswordHash: hash,
		Nickname:     nickname,
		Email:        email,
		Role:         models.RoleUser,
	}
	if s.isAdmin != nil && s.isAdmin(loginID) {
		user.Role = models.RoleAdmin
	}
	err = dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, "login_id", loginID, 0); err != nil {
			return err
		}
		if err := ensureUnique(tx, "email", email, 0); err != nil {
			return err
		}
		if err := ensureUnique(tx, "nickname", nickname, 0); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if isDuplicate(err) {
				return utils.Conflict("login id, email or nickname already in use")
			}
			return utils.Internal(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile := toProfile(user)
	return &profile, nil
}

// ensureUnique rejects value when another user (other than exceptID) already holds it.
func ensureUnique(tx *gorm.DB, column, value string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return utils.Internal(err, "check %s", column)
	}
	if count > 0 {
		return utils.Conflict("%s already in use", strings.ReplaceAll(column, "_", " "))
	}
	return nil
}

// Login verifies credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, loginID, password string) (*LoginResult, error) {
	var user models.User
	if err := dbCtx(s.db, ctx).Where("login_id = ?", strings.TrimSpace(loginID)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, utils.Internal(err, "load user")
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID, user.LoginID)
	if err != nil {
		return nil, utils.Internal(err, "issue token")
	}
	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      toProfile(user),
	}, nil
}

// Get returns the profile of a user.
func (s *UserService) Get(ctx context.Context, userID uint) (*UserProfile, error) {
	var user models.User
	if err := dbCtx(s.db, ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	profile := toProfile(user)
	return &profile, nil
}

// GetPublic returns a profile without contact details.
func (s *UserService) GetPublic(ctx context.Context, userID uint) (*UserProfile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Email = ""
	return profile, nil
}

// RoleOf resolves the role of a user; it backs the capability checks.
func (s *UserService) RoleOf(ctx context.Context, userID uint) (models.Role, error) {
	return roleOf(dbCtx(s.db, ctx), userID)
}

// UpdateProfile applies the provided changes, re-checking uniqueness only for values that change.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*UserProfile, error) {
	var user models.User
	err := dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if in.Nickname != nil {
			nickname := utils.SanitizePlain(*in.Nickname)
			if nickname == "" {
				return utils.FieldErrors(map[string]string{"nickname": "nickname is required"})
			}
			if nickname != user.Nickname {
				if err := ensureUnique(tx, "nickname", nickname, user.ID); err != nil {
					return err
				}
				user.Nickname = nickname
			}
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if email != user.Email {
				if err := ensureUnique(tx, "email", email, user.ID); err != nil {
					return err
				}
				user.Email = email
			}
		}
		if in.ProfileImageURL != nil {
			user.ProfileImageURL = strings.TrimSpace(*in.ProfileImageURL)
		}
		if err := tx.Save(&user).Error; err != nil {
			if isDuplicate(err) {
				return utils.Conflict("email or nickname already in use")
			}
			return utils.Internal(err, "update user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile := toProfile(user)
	return &profile, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	return dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !utils.CheckPassword(user.PasswordHash, current) {
			return utils.Unauthorized("current password is incorrect")
		}
		if current == next {
			return utils.FieldErrors(map[string]string{"new_password": "new password must differ from the current password"})
		}
		hash, err := utils.HashPassword(next)
		if err != nil {
			if errors.Is(err, utils.ErrPasswordTooLong) {
				return utils.FieldErrors(map[string]string{"new_password": err.Error()})
			}
			return utils.Internal(err, "hash password")
		}
		if err := tx.Model(&user).Update("password_hash", hash).Error; err != nil {
			return utils.Internal(err, "update password")
		}
		return nil
	})
}

// DeleteAccount removes the user and everything they own after re-checking the password.
// Boards go with their comments, images and likes; comments on other boards go with their
// images; likes on other boards are removed and those counters decremented.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	var profileURL string
	err := dbCtx(s.db, ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !utils.CheckPassword(user.PasswordHash, password) {
			return utils.Unauthorized("password is incorrect")
		}
		profileURL = user.ProfileImageURL

		var boardIDs []uint
		if err := tx.Model(&models.Board{}).Where("user_id = ?", userID).Pluck("id", &boardIDs).Error; err != nil {
			return utils.Internal(err, "list user boards")
		}
		if err := deleteBoardsTx(tx, boardIDs); err != nil {
			return err
		}

		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
			return utils.Internal(err, "list user comments")
		}
		if err := deleteCommentsTx(tx, commentIDs); err != nil {
			return err
		}

		var likedBoardIDs []uint
		if err := tx.Model(&models.BoardLike{}).Where("user_id = ?", userID).Pluck("board_id", &likedBoardIDs).Error; err != nil {
			return utils.Internal(err, "list user likes")
		}
		if len(likedBoardIDs) > 0 {
			if err := tx.Where("user_id = ?", userID).Delete(&models.BoardLike{}).Error; err != nil {
				return utils.Internal(err, "delete user likes")
			}
			if err := tx.Model(&models.Board{}).Where("id IN ?", utils.Unique(likedBoardIDs)).
				UpdateColumn("like_count", decrementFloor).Error; err != nil {
				return utils.Internal(err, "decrement like counters")
			}
		}

		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return utils.Internal(err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if profileURL != "" {
		if err := s.files.Delete(ctx, profileURL); err != nil {
			utils.Sugar.Warnf("delete profile image %s: %v", profileURL, err)
		}
	}
	return nil
}

// UpdateProfileImage stores a new profile picture and removes the previous one best-effort.
func (s *UserService) UpdateProfileImage(ctx context.Context, userID uint, filename string, size int64, r io.Reader) (*UserProfile, error) {
	var user models.User
	if err := dbCtx(s.db, ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	url, err := s.files.Store(ctx, storage.PurposeProfile, filename, size, r)
	if err != nil {
		return nil, err
	}
	previous := user.ProfileImageURL
	if err := dbCtx(s.db, ctx).Model(&user).Update("profile_image_url", url).Error; err != nil {
		_ = s.files.Delete(ctx, url)
		return nil, utils.Internal(err, "update profile image")
	}
	user.ProfileImageURL = url
	if previous != "" && previous != url {
		if err := s.files.Delete(ctx, previous); err != nil {
			utils.Sugar.Warnf("delete previous profile image %s: %v", previous, err)
		}
	}
	profile := toProfile(user)
	return &profile, nil
}
