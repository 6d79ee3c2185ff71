// Package media stores uploaded product and community images.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// MaxImageSize bounds one upload.
const MaxImageSize = 5 << 20

var ErrUnsupportedType = errors.New("only jpeg, png, webp and gif images are accepted")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, contentType string, r io.Reader) (string, error)
}

// ObjectName builds "folder/uuid.ext" for an accepted content type.
func ObjectName(folder, contentType string) (string, error) {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedType
	}
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		folder = "misc"
	}
	return folder + "/" + uuid.NewString() + ext, nil
}

// BucketUploader writes to a Cloud Storage bucket and makes objects public.
type BucketUploader struct {
	bucket *gcs.BucketHandle
	name   string
}

func NewBucketUploader(bucket *gcs.BucketHandle, name string) *BucketUploader {
	return &BucketUploader{bucket: bucket, name: name}
}

func (u *BucketUploader) Upload(ctx context.Context, folder, contentType string, r io.Reader) (string, error) {
	name, err := ObjectName(folder, contentType)
	if err != nil {
		return "", err
	}
	w := u.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	w.ACL = []gcs.ACLRule{{Entity: gcs.AllUsers, Role: gcs.RoleReader}}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return "https://storage.googleapis.com/" + u.name + "/" + name, nil
}

// LocalUploader writes under Dir; the HTTP server serves Dir at /uploads.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func (u *LocalUploader) Upload(_ context.Context, folder, contentType string, r io.Reader) (string, error) {
	name, err := ObjectName(folder, contentType)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(u.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return strings.TrimRight(u.BaseURL, "/") + "/uploads/" + (&url.URL{Path: name}).EscapedPath(), nil
}
