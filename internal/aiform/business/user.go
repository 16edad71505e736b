package business

import (
	"errors"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
)

var ErrUserNotFound = errors.New("user not found")

// UpgradeUserToPro переводит пользователя на роль pro. Повторный вызов для
// уже переведенного пользователя не является ошибкой.
func (b *Business) UpgradeUserToPro(userID string) error {
	id, err := uuid.FromString(userID)
	if err != nil {
		return ErrUserNotFound
	}

	var user dao.User
	if err := b.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.IsPro() {
		return nil
	}

	return b.db.Model(&user).Update("role", dao.RolePro).Error
}
