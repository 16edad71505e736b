package business

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	filestorage "github.com/aisa-it/aiform/aiform.go/internal/aiform/file-storage"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

func newTestBusiness(t *testing.T) *Business {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	webURL, _ := url.Parse("https://forms.example.com")
	return NewBL(db, storage, webURL)
}

func createTestUser(t *testing.T, b *Business, username string) *dao.User {
	user := dao.User{
		Username: username,
		Email:    username + "@example.com",
		Password: dao.HashPassword("pass"),
	}
	require.NoError(t, b.db.Create(&user).Error)
	return &user
}

// attachments строит карту вложений так же, как echo после разбора multipart-запроса.
func attachments(t *testing.T, field, filename, content string) map[string][]*multipart.FileHeader {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File
}

func TestCreateForm(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "submitter")

	signature := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))
	req := SubmitForm{
		Name:  "Заявка",
		Pages: types.PagesSlice{{PageID: "p1", Fields: types.FormFieldsSlice{{Key: "fullName"}}}},
		Tags:  []string{"hr", "2026"},

		Signature: signature,
	}

	form, err := b.CreateForm(user, req, attachments(t, "passport", "passport.pdf", "pdf body"))
	require.NoError(t, err)

	var saved dao.Form
	require.NoError(t, b.db.First(&saved, "id = ?", form.ID).Error)
	assert.Equal(t, user.ID, saved.OwnerID)
	require.Len(t, saved.Pages, 1)
	assert.Equal(t, "p1", saved.Pages[0].PageID)

	sigRef, ok := saved.Files[types.SignatureKey]
	require.True(t, ok)
	assert.Equal(t, "image/png", sigRef.Mimetype)
	assert.Equal(t, b.FileURL(sigRef.Key), sigRef.URL)

	data, err := b.storage.Load(sigRef.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)

	fileRef, ok := saved.Files["passport"]
	require.True(t, ok)
	data, err = b.storage.Load(fileRef.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf body"), data)
}

func TestCreateFormInvalidSignature(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "badsig")

	_, err := b.CreateForm(user, SubmitForm{Name: "Заявка", Signature: "*** not base64 ***"}, nil)
	require.ErrorIs(t, err, ErrInvalidSignature)

	var count int64
	require.NoError(t, b.db.Model(&dao.Form{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditForm(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "editor")

	form, err := b.CreateForm(user, SubmitForm{Name: "Исходная"}, attachments(t, "scan", "scan.pdf", "old body"))
	require.NoError(t, err)

	newName := "Обновленная"
	pages := types.PagesSlice{{PageID: "p2"}}
	req := UpdateForm{
		Name:  &newName,
		Pages: &pages,
	}
	require.NoError(t, b.EditForm(form, user, req, nil))

	var saved dao.Form
	require.NoError(t, b.db.First(&saved, "id = ?", form.ID).Error)
	assert.Equal(t, "Обновленная", saved.Name)
	require.Len(t, saved.Pages, 1)
	assert.Equal(t, "p2", saved.Pages[0].PageID)
	// Untouched fields survive partial update
	assert.Contains(t, saved.Files, "scan")
}

func TestEditFormReplacesFile(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "replacer")

	form, err := b.CreateForm(user, SubmitForm{Name: "Форма"}, nil)
	require.NoError(t, err)

	require.NoError(t, b.EditForm(form, user, UpdateForm{}, attachments(t, "file", "scan.pdf", "first")))
	oldKey := form.Files["scan_pdf"].Key

	require.NoError(t, b.EditForm(form, user, UpdateForm{}, attachments(t, "file", "scan.pdf", "second")))
	newKey := form.Files["scan_pdf"].Key

	data, err := b.storage.Load(newKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	if oldKey != newKey {
		exist, err := b.storage.Exist(oldKey)
		require.NoError(t, err)
		assert.False(t, exist)
	}
}

func TestEditFormKeepsBlobOnSaveFailure(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "unlucky")

	form, err := b.CreateForm(user, SubmitForm{Name: "Форма"}, nil)
	require.NoError(t, err)
	require.NoError(t, b.EditForm(form, user, UpdateForm{}, attachments(t, "file", "scan.pdf", "original")))
	oldKey := form.Files["scan_pdf"].Key

	// Corrupted entry makes the save hook reject the document
	form.Files["broken"] = types.FileRef{URL: "https://forms.example.com/x"}

	err = b.EditForm(form, user, UpdateForm{}, attachments(t, "file", "scan.pdf", "replacement"))
	require.ErrorIs(t, err, dao.ErrEmptyFileKey)

	exist, err := b.storage.Exist(oldKey)
	require.NoError(t, err)
	assert.True(t, exist)

	var saved dao.Form
	require.NoError(t, b.db.First(&saved, "id = ?", form.ID).Error)
	assert.Equal(t, oldKey, saved.Files["scan_pdf"].Key)
}

func TestDeleteForm(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "deleter")

	signature := base64.StdEncoding.EncodeToString([]byte("png bytes"))
	form, err := b.CreateForm(user, SubmitForm{Name: "Форма", Signature: signature}, attachments(t, "scan", "scan.pdf", "body"))
	require.NoError(t, err)

	keys := form.Files.Keys()
	require.NotEmpty(t, keys)

	require.NoError(t, b.DeleteForm(form))

	var count int64
	require.NoError(t, b.db.Model(&dao.Form{}).Where("id = ?", form.ID).Count(&count).Error)
	assert.Zero(t, count)

	for _, key := range keys {
		exist, err := b.storage.Exist(key)
		require.NoError(t, err)
		assert.False(t, exist, key)
	}
}

func TestFindOwnedFile(t *testing.T) {
	b := newTestBusiness(t)
	owner := createTestUser(t, b, "owner")
	stranger := createTestUser(t, b, "stranger")

	form, err := b.CreateForm(owner, SubmitForm{Name: "Форма"}, attachments(t, "scan", "scan.pdf", "body"))
	require.NoError(t, err)
	key := form.Files["scan"].Key

	ref, err := b.FindOwnedFile(owner.ID, key)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, key, ref.Key)

	ref, err = b.FindOwnedFile(stranger.ID, key)
	require.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = b.FindOwnedFile(owner.ID, "uploads/unknown.pdf")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestOpenFile(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "streamer")

	form, err := b.CreateForm(user, SubmitForm{Name: "Форма"}, attachments(t, "scan", "scan.pdf", "body"))
	require.NoError(t, err)

	ref := form.Files["scan"]
	reader, contentType, err := b.OpenFile(&ref)
	require.NoError(t, err)
	defer reader.Close()

	assert.NotEmpty(t, contentType)

	buf := make([]byte, 4)
	_, err = reader.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), buf)
}

func TestUpgradeUserToPro(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "upgrade")

	require.NoError(t, b.UpgradeUserToPro(user.ID.String()))

	var saved dao.User
	require.NoError(t, b.db.First(&saved, "id = ?", user.ID).Error)
	assert.Equal(t, dao.RolePro, saved.Role)
	assert.True(t, saved.IsPro())

	// Repeated webhook delivery is a no-op
	require.NoError(t, b.UpgradeUserToPro(user.ID.String()))

	require.ErrorIs(t, b.UpgradeUserToPro("not-a-uuid"), ErrUserNotFound)
	require.ErrorIs(t, b.UpgradeUserToPro(dao.GenID()), ErrUserNotFound)
}

func TestFileURL(t *testing.T) {
	b := newTestBusiness(t)
	assert.Equal(t,
		"https://forms.example.com/forms/file/uploads%2F1_scan.pdf",
		b.FileURL("uploads/1_scan.pdf"))
}
