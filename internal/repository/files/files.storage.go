// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	defaultDateFormat  = "20060102_150405"
)

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// New builds the blob store selected in the configuration.
func New(ctx context.Context, cfg config.BlobStoreConfig) (repository.BlobStore, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(cfg.BasePath)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("unsupported blob store driver %q", cfg.Driver)
}

// Policy limits what may be uploaded.
type Policy struct {
	MaxFileSize      int64
	AllowedMimeTypes []string
}

// Check validates an upload of size bytes and the given content type. An
// empty allow list accepts every type.
func (p Policy) Check(size int64, contentType string) error {
	if p.MaxFileSize > 0 && size > p.MaxFileSize {
		return errors.NewValidationError("file size exceeds maximum allowed size", nil)
	}
	if len(p.AllowedMimeTypes) == 0 {
		return nil
	}
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, allowed := range p.AllowedMimeTypes {
		if strings.EqualFold(allowed, mediaType) {
			return nil
		}
	}
	return errors.NewValidationError("unsupported file type", nil)
}

// ObjectKey names the blob of a new asset: owner/kind/<timestamp>_<id><ext>.
func ObjectKey(ownerID string, kind models.FileKind, id, filename string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		ext = "." + unsafeSegment.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	}
	name := fmt.Sprintf("%s_%s%s", at.UTC().Format(defaultDateFormat), id, ext)
	return path.Join(unsafeSegment.ReplaceAllString(ownerID, "_"), string(kind), name)
}

// LocalStore keeps blobs under a base directory
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new file system blob store
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := createDirectoryIfNotExists(basePath); err != nil {
		return nil, err
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key {
		return "", errors.NewValidationError("invalid storage key", nil)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Put writes r to key. The content only becomes visible once complete.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := createDirectoryIfNotExists(filepath.Dir(dst)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return errors.NewInternalError("failed to create destination file", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.NewInternalError("failed to copy file", err)
	}
	if size >= 0 && written != size {
		return errors.NewValidationError(fmt.Sprintf("upload truncated: got %d of %d bytes", written, size), nil)
	}
	if err := ctx.Err(); err != nil {
		return errors.NewInternalError("upload cancelled", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return errors.NewInternalError("failed to store file", err)
	}

	nuts.L.Infof("[LocalStore] Stored file: %s (%d bytes)", key, written)
	return nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("file content not found", err)
		}
		return nil, errors.NewInternalError("failed to open file", err)
	}
	return f, nil
}

// Delete removes key; deleting a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.NewInternalError("failed to delete file", err)
	}
	return nil
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err := os.MkdirAll(path, defaultPermissions)
		if err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
