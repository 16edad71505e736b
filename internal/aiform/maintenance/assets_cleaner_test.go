package maintenance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	filestorage "github.com/aisa-it/aiform/aiform.go/internal/aiform/file-storage"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

func TestCleanAssets(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	rootDir := t.TempDir()
	storage, err := filestorage.NewLocalStorage(rootDir)
	require.NoError(t, err)

	save := func(key string) {
		require.NoError(t, storage.Save([]byte("body"), key, "application/octet-stream", nil))
	}
	backdate := func(key string) {
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(rootDir, filepath.FromSlash(key)), old, old))
	}

	// Old blob referenced by a form must survive
	save("uploads/1_kept.pdf")
	backdate("uploads/1_kept.pdf")

	user := dao.User{Username: "cleaner", Email: "cleaner@example.com", Password: dao.HashPassword("pass")}
	require.NoError(t, db.Create(&user).Error)
	form := dao.Form{
		Name:    "Форма",
		OwnerID: user.ID,
		Files:   types.FileMap{"scan": {Key: "uploads/1_kept.pdf"}},
	}
	require.NoError(t, db.Create(&form).Error)

	// Old orphans are removed
	save("uploads/2_orphan.pdf")
	backdate("uploads/2_orphan.pdf")
	save("signatures/3_signature.png")
	backdate("signatures/3_signature.png")

	// Fresh orphan and foreign prefix are left alone
	save("uploads/4_fresh.pdf")
	save("other/5_unknown.bin")
	backdate("other/5_unknown.bin")

	NewAssetCleaner(db, storage).CleanAssets()

	for key, want := range map[string]bool{
		"uploads/1_kept.pdf":        true,
		"uploads/2_orphan.pdf":      false,
		"signatures/3_signature.png": false,
		"uploads/4_fresh.pdf":       true,
		"other/5_unknown.bin":       true,
	} {
		exist, err := storage.Exist(key)
		require.NoError(t, err)
		assert.Equal(t, want, exist, key)
	}
}
