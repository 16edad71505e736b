package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePages(t *testing.T) {
	pages, err := ParsePages([]byte(`[
		{"pageId": "p1", "pageType": "info", "fields": [{"key": "fullName", "value": "\"Ivan\""}]},
		{"pageId": "p2", "fields": []}
	]`))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p1", pages[0].PageID)
	assert.Equal(t, "fullName", pages[0].Fields[0].Key)

	pages, err = ParsePages([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, pages)

	_, err = ParsePages([]byte(`{"pageId": "p1"}`))
	assert.Error(t, err)

	_, err = ParsePages([]byte(`null`))
	assert.Error(t, err)

	_, err = ParsePages([]byte(`not json`))
	assert.Error(t, err)
}

func TestFileMapScan(t *testing.T) {
	files := FileMap{
		SignatureKey: {URL: "https://forms.local/forms/file/signatures%2F1_signature.png", Key: "signatures/1_signature.png", Mimetype: "image/png"},
		"passport":   {Key: "uploads/2_passport.pdf", Mimetype: "application/pdf"},
	}

	v, err := files.Value()
	require.NoError(t, err)

	var restored FileMap
	require.NoError(t, restored.Scan(v))
	assert.Equal(t, files, restored)

	assert.True(t, restored.HasKey("uploads/2_passport.pdf"))
	assert.False(t, restored.HasKey("uploads/unknown.pdf"))
	assert.ElementsMatch(t, []string{"signatures/1_signature.png", "uploads/2_passport.pdf"}, restored.Keys())
}

func TestFileMapNil(t *testing.T) {
	var files FileMap

	v, err := files.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	require.NoError(t, files.Scan(nil))
	assert.NotNil(t, files)
	assert.Empty(t, files)
}
