package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

func TestFormSanitize(t *testing.T) {
	db := openTestDB(t)

	user := User{Username: "sanitize", Email: "sanitize@example.com", Password: HashPassword("pass")}
	require.NoError(t, db.Create(&user).Error)

	form := Form{
		Name:        "Анкета <script>alert(1)</script>",
		Description: "<b>Важно</b><script>alert(2)</script>",
		OwnerID:     user.ID,
		Pages:       types.PagesSlice{{PageID: "p1"}},
	}
	require.NoError(t, db.Create(&form).Error)

	var saved Form
	require.NoError(t, db.First(&saved, "id = ?", form.ID).Error)
	assert.Equal(t, "Анкета ", saved.Name)
	assert.Equal(t, "<b>Важно</b>", saved.Description)
	require.Len(t, saved.Pages, 1)
	assert.Equal(t, "p1", saved.Pages[0].PageID)
}

func TestFormEmptyFileKey(t *testing.T) {
	db := openTestDB(t)

	user := User{Username: "filekey", Email: "filekey@example.com", Password: HashPassword("pass")}
	require.NoError(t, db.Create(&user).Error)

	form := Form{
		Name:    "Форма",
		OwnerID: user.ID,
		Files: types.FileMap{
			"passport": {URL: "https://forms.local/forms/file/x", Key: ""},
		},
	}
	err := db.Create(&form).Error
	require.ErrorIs(t, err, ErrEmptyFileKey)

	var count int64
	require.NoError(t, db.Model(&Form{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFormFilesRoundtrip(t *testing.T) {
	db := openTestDB(t)

	user := User{Username: "roundtrip", Email: "roundtrip@example.com", Password: HashPassword("pass")}
	require.NoError(t, db.Create(&user).Error)

	form := Form{
		Name:    "Форма",
		OwnerID: user.ID,
		Files: types.FileMap{
			types.SignatureKey: {URL: "https://forms.local/forms/file/signatures%2F1_signature.png", Key: "signatures/1_signature.png", Mimetype: "image/png"},
		},
	}
	require.NoError(t, db.Create(&form).Error)

	var saved Form
	require.NoError(t, db.First(&saved, "id = ?", form.ID).Error)
	assert.True(t, saved.Files.HasKey("signatures/1_signature.png"))
	assert.Equal(t, "image/png", saved.Files[types.SignatureKey].Mimetype)
}
