package services

import (
	"context"
	"errors"
	"path"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

const maxImagesPerItem = 20

// isDuplicate reports a unique-constraint violation. TranslateError covers the
// supported drivers; the message checks catch drivers or wrappers that do not translate.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// notFoundOr maps gorm.ErrRecordNotFound to a not-found error and anything else to internal.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound("%s not found", what)
	}
	return utils.Internal(err, "load %s", what)
}

// roleOf loads the role of a user through db, which may be a transaction.
func roleOf(db *gorm.DB, userID uint) (models.Role, error) {
	var user models.User
	if err := db.Select("id", "role").First(&user, userID).Error; err != nil {
		return "", notFoundOr(err, "user")
	}
	if !user.Role.Valid() {
		utils.Sugar.Warnf("user %d has unknown role %q, treating as %s", userID, user.Role, models.RoleUser)
		return models.RoleUser, nil
	}
	return user.Role, nil
}

// canModerate reports whether the caller may act on content owned by someone else.
func canModerate(db *gorm.DB, callerID uint) (bool, error) {
	role, err := roleOf(db, callerID)
	if err != nil {
		return false, err
	}
	return role.Can(models.CapModerateContent), nil
}

func checkImageURLs(urls []string) error {
	if len(urls) > maxImagesPerItem {
		return utils.FieldErrors(map[string]string{"image_urls": "at most 20 images are allowed"})
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" || len(u) > 1024 {
			return utils.FieldErrors(map[string]string{"image_urls": "image url must be 1-1024 characters"})
		}
	}
	return nil
}

func originalName(url string) string {
	return path.Base(strings.TrimSpace(url))
}

func dbCtx(db *gorm.DB, ctx context.Context) *gorm.DB {
	if ctx == nil {
		return db
	}
	return db.WithContext(ctx)
}
