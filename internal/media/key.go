package media

import (
	"strings"

	"github.com/google/uuid"
)

// Ext returns everything after the last dot of name. A name without a dot is
// returned whole. Path separators are replaced so the result is always a
// single key segment.
func Ext(name string) string {
	ext := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i+1:]
	}
	return strings.NewReplacer("/", "_", "\\", "_").Replace(ext)
}

// NewKey derives a fresh storage key {folder}/{uuid}.{ext}. The original
// filename never takes part beyond its extension, so two uploads of the same
// name can not overwrite each other.
func NewKey(folder Folder, filename string) string {
	return string(folder) + "/" + uuid.NewString() + "." + Ext(filename)
}

// SplitKey returns the folder prefix of a key produced by NewKey.
func SplitKey(key string) (Folder, bool) {
	prefix, rest, ok := strings.Cut(key, "/")
	if !ok {
		return "", false
	}
	f, ok := ParseFolder(prefix)
	if !ok {
		return "", false
	}
	id, ext, ok := strings.Cut(rest, ".")
	if !ok || strings.ContainsAny(ext, "/\\") {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return "", false
	}
	return f, true
}

// ValidKey reports whether key has the shape NewKey produces.
func ValidKey(key string) bool {
	_, ok := SplitKey(key)
	return ok
}
