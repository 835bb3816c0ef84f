// Package netx moves object bytes over plain HTTP to presigned URLs issued by
// the server, so the client never holds storage credentials.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ProgressFunc receives the number of bytes sent so far and the total.
type ProgressFunc func(loaded, total int64)

// Uploader issues presigned PUT requests.
type Uploader struct {
	client *http.Client
}

// NewUploader returns an Uploader using c, or http.DefaultClient when c is nil.
func NewUploader(c *http.Client) *Uploader {
	if c == nil {
		c = http.DefaultClient
	}
	return &Uploader{client: c}
}

// Put streams size bytes from body to a presigned PUT url. progress, when not
// nil, is called from the sending goroutine as bytes leave the reader.
// Any non-2xx response is an error carrying the status and response body.
func (u *Uploader) Put(ctx context.Context, url string, body io.Reader, size int64, contentType string, progress ProgressFunc) error {
	if size == 0 {
		body = http.NoBody
	} else if progress != nil {
		body = &progressReader{r: body, total: size, report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}

type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.report(p.loaded, p.total)
	}
	return n, err
}
