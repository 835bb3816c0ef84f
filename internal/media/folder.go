// Package media holds the domain vocabulary shared by the Safe Locker client
// and server: folders, catalog records and storage key derivation.
package media

import "strings"

// Folder is one of the fixed buckets a stored file is filed under.
type Folder string

const (
	Photos    Folder = "photos"
	Videos    Folder = "videos"
	Documents Folder = "documents"
)

// Folders lists every known folder in display order.
var Folders = []Folder{Photos, Videos, Documents}

// FolderFor derives the folder from a MIME type by its top-level category.
// Anything that is neither an image nor a video is a document.
func FolderFor(mimeType string) Folder {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return Photos
	case strings.HasPrefix(mimeType, "video/"):
		return Videos
	default:
		return Documents
	}
}

// ParseFolder narrows a free-form folder value. Unknown values report false.
func ParseFolder(s string) (Folder, bool) {
	switch f := Folder(s); f {
	case Photos, Videos, Documents:
		return f, true
	}
	return "", false
}

// Title is the human readable folder name.
func (f Folder) Title() string {
	switch f {
	case Photos:
		return "Photos"
	case Videos:
		return "Videos"
	case Documents:
		return "Documents"
	}
	return string(f)
}

// Icon is the glyph shown next to the folder title.
func (f Folder) Icon() string {
	switch f {
	case Photos:
		return "📷"
	case Videos:
		return "🎥"
	case Documents:
		return "📄"
	}
	return "📁"
}
