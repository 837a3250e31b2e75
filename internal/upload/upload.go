package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"plate-registry/internal/domain/plate"
)

// TempImage is an uploaded image spooled to disk. The file exists until
// Release is called.
type TempImage struct {
	path        string
	fileName    string
	contentType string
	size        int64
}

// Save copies the multipart file into dir under a random name.
func Save(fh *multipart.FileHeader, dir string) (*TempImage, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(dir, uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return &TempImage{
		path:        path,
		fileName:    filepath.Base(fh.Filename),
		contentType: fh.Header.Get("Content-Type"),
		size:        n,
	}, nil
}

func (t *TempImage) Path() string { return t.path }

func (t *TempImage) Read() ([]byte, error) {
	return os.ReadFile(t.path)
}

func (t *TempImage) ContentType() string { return t.contentType }

func (t *TempImage) Info() plate.UploadInfo {
	return plate.UploadInfo{
		FileName:    t.fileName,
		ContentType: t.contentType,
		Size:        t.size,
	}
}

// Release deletes the backing file. Calling it twice is harmless.
func (t *TempImage) Release() error {
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Memory is an in-memory image, used when the client sends the bytes inline.
type Memory struct {
	data        []byte
	contentType string
	fileName    string
}

func FromBytes(data []byte, contentType, fileName string) *Memory {
	return &Memory{data: data, contentType: contentType, fileName: fileName}
}

func (m *Memory) Read() ([]byte, error) { return m.data, nil }

func (m *Memory) ContentType() string { return m.contentType }

func (m *Memory) Info() plate.UploadInfo {
	return plate.UploadInfo{FileName: m.fileName, ContentType: m.contentType, Size: int64(len(m.data))}
}

func (m *Memory) Release() error {
	m.data = nil
	return nil
}
