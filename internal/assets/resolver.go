package assets

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/avolkau/inkshelf/internal/entities"
)

// ErrAssetUnavailable means no downloadable URL could be derived from
// the book's stored asset reference. Callers must treat this as fatal
// for the request, never as a silent fallback.
var ErrAssetUnavailable = errors.New("no downloadable asset reference")

// Accepted asset reference shapes. Drive file identifiers are 33
// characters of [A-Za-z0-9_-]; the bare form is accepted as-is.
var (
	filePathPattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	bareIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{33}$`)
)

// ExtractFileID pulls the opaque file identifier out of an asset
// reference. It accepts exactly three shapes: a /file/d/<id> path
// segment, an id=<id> query parameter, and a bare 33-character
// identifier. Everything else is rejected.
func ExtractFileID(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	if m := filePathPattern.FindStringSubmatch(ref); m != nil {
		return m[1], true
	}

	if u, err := url.Parse(ref); err == nil {
		if id := u.Query().Get("id"); id != "" {
			return id, true
		}
	}

	if bareIDPattern.MatchString(ref) {
		return ref, true
	}

	return "", false
}

// Valid reports whether ref is a plausibly resolvable asset reference.
// Used by the catalog write path to reject bad references up front.
func Valid(ref string) bool {
	_, ok := ExtractFileID(ref)
	return ok
}

// DownloadURL builds the canonical retrieval URL for a file identifier.
func DownloadURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", fileID)
}

// PreviewURL builds the embeddable preview URL for a file identifier.
// Used for audiobook streaming previews.
func PreviewURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/preview", fileID)
}

// Resolve returns the downloadable URL for a book. A previously derived
// DownloadURL on the record wins; otherwise the URL is derived from the
// raw asset reference. Resolution is deterministic: the same book
// always resolves to the same URL.
func Resolve(book *entities.Book) (string, error) {
	if book.DownloadURL != "" {
		return book.DownloadURL, nil
	}

	fileID, ok := ExtractFileID(book.AssetRef)
	if !ok {
		return "", fmt.Errorf("%w: book %d", ErrAssetUnavailable, book.ID)
	}
	return DownloadURL(fileID), nil
}

// ResolvePreview returns the preview URL for a book, deriving it from
// the asset reference when the record carries none.
func ResolvePreview(book *entities.Book) (string, error) {
	if book.PreviewURL != "" {
		return book.PreviewURL, nil
	}

	fileID, ok := ExtractFileID(book.AssetRef)
	if !ok {
		return "", fmt.Errorf("%w: book %d", ErrAssetUnavailable, book.ID)
	}
	return PreviewURL(fileID), nil
}
