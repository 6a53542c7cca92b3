package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkau/inkshelf/internal/entities"
)

const testFileID = "1a2B3c4D5e6F7g8H9i0JkLmNoPqRsTuVw" // 33 chars

func TestExtractFileID(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		wantID string
		wantOK bool
	}{
		{
			name:   "file path segment",
			ref:    "https://drive.google.com/file/d/" + testFileID + "/view?usp=sharing",
			wantID: testFileID,
			wantOK: true,
		},
		{
			name:   "query parameter id",
			ref:    "https://drive.google.com/open?id=" + testFileID,
			wantID: testFileID,
			wantOK: true,
		},
		{
			name:   "bare 33-character identifier",
			ref:    testFileID,
			wantID: testFileID,
			wantOK: true,
		},
		{
			name:   "empty reference",
			ref:    "",
			wantOK: false,
		},
		{
			name:   "unrelated url",
			ref:    "https://example.com/books/moby-dick.epub",
			wantOK: false,
		},
		{
			name:   "bare identifier of wrong length",
			ref:    strings.Repeat("a", 20),
			wantOK: false,
		},
		{
			name:   "surrounding whitespace",
			ref:    "  " + testFileID + "  ",
			wantID: testFileID,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractFileID(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("https://drive.google.com/file/d/"+testFileID+"/view"))
	assert.True(t, Valid(testFileID))
	assert.False(t, Valid("not-an-asset-reference"))
	assert.False(t, Valid(""))
}

func TestResolve(t *testing.T) {
	t.Run("prefers stored download url", func(t *testing.T) {
		book := &entities.Book{
			AssetRef:    testFileID,
			DownloadURL: "https://cdn.example.com/files/abc.epub",
		}
		url, err := Resolve(book)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/files/abc.epub", url)
	})

	t.Run("derives from asset reference", func(t *testing.T) {
		book := &entities.Book{AssetRef: "https://drive.google.com/file/d/" + testFileID + "/view"}
		url, err := Resolve(book)
		require.NoError(t, err)
		assert.Equal(t, DownloadURL(testFileID), url)
	})

	t.Run("fails when nothing can be derived", func(t *testing.T) {
		book := &entities.Book{ID: 7, AssetRef: "garbage"}
		_, err := Resolve(book)
		require.ErrorIs(t, err, ErrAssetUnavailable)
	})

	t.Run("resolution is idempotent", func(t *testing.T) {
		book := &entities.Book{AssetRef: testFileID}
		first, err := Resolve(book)
		require.NoError(t, err)
		second, err := Resolve(book)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestResolvePreview(t *testing.T) {
	book := &entities.Book{Type: entities.BookTypeAudiobook, AssetRef: testFileID}
	url, err := ResolvePreview(book)
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/"+testFileID+"/preview", url)

	_, err = ResolvePreview(&entities.Book{AssetRef: "nope"})
	assert.ErrorIs(t, err, ErrAssetUnavailable)
}
