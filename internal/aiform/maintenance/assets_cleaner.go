// Пакет фоновой чистки хранилища. Находит блобы в uploads/ и signatures/, на которые не ссылается ни одна форма, и удаляет их. Осиротевшие блобы появляются, когда загрузка прошла, а запись формы не была сохранена.
//
// Основные возможности:
//   - Обход корня хранилища.
//   - Сверка ключей с картами файлов всех форм.
//   - Удаление непривязанных блобов старше суточного порога.
package maintenance

import (
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	filestorage "github.com/aisa-it/aiform/aiform.go/internal/aiform/file-storage"
)

// Блобы моложе порога не трогаем: загрузка могла пройти раньше записи формы.
const orphanAge = 24 * time.Hour

type AssetsCleaner struct {
	db *gorm.DB
	si filestorage.FileStorage
}

func NewAssetCleaner(db *gorm.DB, si filestorage.FileStorage) *AssetsCleaner {
	return &AssetsCleaner{db, si}
}

func (ac *AssetsCleaner) CleanAssets() {
	slog.Info("Start assets cleaning")

	referenced, err := ac.referencedKeys()
	if err != nil {
		slog.Error("Collect referenced keys", "err", err)
		return
	}

	var removed int
	if err := ac.si.ListRoot(func(fi filestorage.FileInfo) error {
		if !strings.HasPrefix(fi.Key, "uploads/") && !strings.HasPrefix(fi.Key, "signatures/") {
			return nil
		}
		if time.Since(fi.CreatedAt) < orphanAge {
			return nil
		}
		if _, ok := referenced[fi.Key]; ok {
			return nil
		}

		if err := ac.si.Delete(fi.Key); err != nil {
			slog.Error("Delete orphan blob", "key", fi.Key, "err", err)
			return nil
		}
		removed++
		return nil
	}); err != nil {
		slog.Error("Clean assets fail", "err", err)
	}
	slog.Info("Finish assets cleaning", "removed", removed)
}

func (ac *AssetsCleaner) referencedKeys() (map[string]struct{}, error) {
	var forms []dao.Form
	if err := ac.db.Select("files").Find(&forms).Error; err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	for _, form := range forms {
		for _, ref := range form.Files {
			keys[ref.Key] = struct{}{}
		}
	}
	return keys, nil
}
