package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
)

// IO reads and writes recipe images in a Cloud Storage bucket.
type IO struct {
	storage *storage.Client
	bucket  string
}

func NewIO(storage *storage.Client, bucket string) *IO {
	return &IO{
		storage: storage,
		bucket:  bucket,
	}
}

// WriteFile stores data at path and returns the public URL of the object.
func (io *IO) WriteFile(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	w := io.storage.Bucket(io.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("blob: writing file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("blob: closing writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", io.bucket, path), nil
}

// WriteDataURL decodes an image data URL and stores it at pathNoExt with
// the extension implied by the content type, returning the public URL.
func (io *IO) WriteDataURL(ctx context.Context, pathNoExt string, dataURL string) (string, error) {
	contentType, ext, data, err := parseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return io.WriteFile(ctx, pathNoExt+"."+ext, contentType, data)
}

// DeleteFile removes the object at path.
func (io *IO) DeleteFile(ctx context.Context, path string) error {
	if err := io.storage.Bucket(io.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("blob: deleting file: %w", err)
	}
	return nil
}

func parseDataURL(dataURL string) (contentType string, ext string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", nil, fmt.Errorf("blob: invalid data URL %q", dataURL)
	}
	ct, contents, ok := strings.Cut(rest, ";")
	if !ok {
		return "", "", nil, fmt.Errorf("blob: invalid data URL %q", dataURL)
	}

	ext, ok = strings.CutPrefix(ct, "image/")
	if !ok {
		return "", "", nil, fmt.Errorf("blob: only image data URLs supported, got %q", ct)
	}

	b64, ok := strings.CutPrefix(contents, "base64,")
	if !ok {
		return "", "", nil, fmt.Errorf("blob: only base64 data URLs supported")
	}
	bytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", "", nil, fmt.Errorf("blob: decoding base64 data URL: %w", err)
	}
	return ct, ext, bytes, nil
}

// ObjectPath resolves a stored image URL to the object path within the
// bucket. Both URL forms found in recipe documents are understood: the
// Firebase download form with a URL-encoded path between "/o/" and the
// query string, and the plain storage.googleapis.com form our own writes
// produce.
func ObjectPath(imageURL string) (string, error) {
	if i := strings.Index(imageURL, "/o/"); i >= 0 {
		rest := imageURL[i+len("/o/"):]
		if q := strings.IndexByte(rest, '?'); q >= 0 {
			rest = rest[:q]
		}
		path, err := url.PathUnescape(rest)
		if err != nil {
			return "", fmt.Errorf("blob: decoding image URL %q: %w", imageURL, err)
		}
		return path, nil
	}
	if rest, ok := strings.CutPrefix(imageURL, "https://storage.googleapis.com/"); ok {
		if _, path, ok := strings.Cut(rest, "/"); ok && path != "" {
			return path, nil
		}
	}
	return "", fmt.Errorf("blob: unrecognized image URL %q", imageURL)
}
