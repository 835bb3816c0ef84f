package locker

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// File is a candidate for upload.
type File struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileFromPath describes a local file. The MIME type comes from the
// extension, falling back to content sniffing.
func FileFromPath(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if st.IsDir() {
		return File{}, &os.PathError{Op: "open", Path: path, Err: errIsDir}
	}

	return File{
		Name: filepath.Base(path),
		Type: detectType(path),
		Size: st.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func detectType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		mt, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mt
		}
		return t
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if n == 0 {
		return ""
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil || mt == "application/octet-stream" {
		return ""
	}
	return mt
}
