// Содержит бизнес-логику работы с формами, файлами и статистикой.
// Функции предназначены для переиспользования в HTTP handlers и фоновых задачах.
package business

import (
	"net/url"
	"strings"

	"gorm.io/gorm"

	filestorage "github.com/aisa-it/aiform/aiform.go/internal/aiform/file-storage"
)

type Business struct {
	db      *gorm.DB
	storage filestorage.FileStorage
	webURL  *url.URL
}

func NewBL(db *gorm.DB, storage filestorage.FileStorage, webURL *url.URL) *Business {
	return &Business{
		db:      db,
		storage: storage,
		webURL:  webURL,
	}
}

// FileURL строит публичный адрес файла по ключу хранилища.
func (b *Business) FileURL(key string) string {
	return strings.TrimSuffix(b.webURL.String(), "/") + "/forms/file/" + url.PathEscape(key)
}
