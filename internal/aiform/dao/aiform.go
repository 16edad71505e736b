// DAO (Data Access Object) слой приложения: модели пользователей и форм, миграции, генерация идентификаторов.
//
// Основные возможности:
//   - Описание моделей GORM.
//   - Автоматическая миграция схемы.
//   - Генерация UUID идентификаторов.
package dao

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// GenID генерирует уникальный строковый идентификатор.
func GenID() string {
	u2, _ := uuid.NewV4()
	return u2.String()
}

// GenUUID генерирует уникальный идентификатор в формате UUID.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

// Migrate выполняет автоматическую миграцию всех моделей приложения.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Form{},
	)
}
