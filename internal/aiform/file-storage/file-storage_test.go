package filestorage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "uploads/1_passport.pdf"
	require.NoError(t, storage.Save([]byte("pdf body"), key, "application/pdf", &Metadata{UserId: "u1"}))

	exist, err := storage.Exist(key)
	require.NoError(t, err)
	assert.True(t, exist)

	data, err := storage.Load(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf body"), data)

	info, err := storage.GetFileInfo(key)
	require.NoError(t, err)
	assert.Equal(t, int64(len("pdf body")), info.Size)

	require.NoError(t, storage.SaveReader(bytes.NewBufferString("png body"), int64(len("png body")), "signatures/2_signature.png", "image/png", nil))

	var keys []string
	require.NoError(t, storage.ListRoot(func(info FileInfo) error {
		keys = append(keys, info.Key)
		return nil
	}))
	assert.ElementsMatch(t, []string{"uploads/1_passport.pdf", "signatures/2_signature.png"}, keys)

	require.NoError(t, storage.Delete(key))
	exist, err = storage.Exist(key)
	require.NoError(t, err)
	assert.False(t, exist)
}
