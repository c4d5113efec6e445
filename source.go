package svgico

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/esimov/svgico/utils"
)

// Source is a byte source of an image or of a stylesheet.
// Every call of Open hands out a new reader which the caller must close.
type Source interface {
	// Name identifies the source in logs and error messages.
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads the content from the local file system.
type FileSource string

func (f FileSource) Name() string { return string(f) }

func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// BytesSource serves an in-memory buffer.
type BytesSource struct {
	ID   string
	Data []byte
}

// NewBytesSource wraps data into a Source named id.
func NewBytesSource(id string, data []byte) *BytesSource {
	return &BytesSource{ID: id, Data: data}
}

func (b *BytesSource) Name() string { return b.ID }

func (b *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// ReaderSource adapts an already opened stream, like the standard input.
// The stream is read completely on the first Open and closed when it
// implements io.Closer; every Open then serves the buffered content, so
// one ReaderSource can back several entries.
type ReaderSource struct {
	ID string
	R  io.Reader

	once sync.Once
	data []byte
	err  error
}

func (r *ReaderSource) Name() string { return r.ID }

func (r *ReaderSource) Open() (io.ReadCloser, error) {
	r.once.Do(func() {
		r.data, r.err = io.ReadAll(r.R)
		if c, ok := r.R.(io.Closer); ok {
			if err := c.Close(); r.err == nil {
				r.err = err
			}
		}
	})
	if r.err != nil {
		return nil, r.err
	}
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

// URLSource downloads the content over HTTP into a temporary file.
// The temporary file lives until the returned reader is closed.
type URLSource string

func (u URLSource) Name() string { return string(u) }

func (u URLSource) Open() (io.ReadCloser, error) {
	f, err := utils.DownloadFile(string(u))
	if err != nil {
		return nil, err
	}
	return &tempFile{File: f}, nil
}

// tempFile removes the underlying file once it is closed.
type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	if rerr := os.Remove(t.File.Name()); err == nil {
		err = rerr
	}
	return err
}

// SourceFromURI resolves a reference given by the user: http(s) URLs are
// downloaded, file:// URIs and plain paths are read from disk.
func SourceFromURI(uri string) Source {
	if utils.IsValidUrl(uri) {
		u, _ := url.Parse(uri)
		switch u.Scheme {
		case "http", "https":
			return URLSource(uri)
		}
	}
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		return FileSource(filepath.FromSlash(u.Path))
	}
	return FileSource(uri)
}
