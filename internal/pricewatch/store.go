package pricewatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"google.golang.org/api/option"
)

// ImageStore keeps scan screenshots and returns a URL for the results table.
type ImageStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// maxShotWidth bounds screenshots before they are stored and sent to the model.
const maxShotWidth = 1280

// Shrink downsizes wide screenshots and re-encodes them as JPEG.
func Shrink(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	if img.Bounds().Dx() > maxShotWidth {
		img = imaging.Resize(img, maxShotWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LocalStore writes into Dir and serves the files under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func (s *LocalStore) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	return strings.TrimRight(s.URLPrefix, "/") + "/" + name, nil
}

// GCSStore uploads to a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStore(ctx context.Context, bucket, credsJSON string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: client, bucket: bucket, prefix: "pricewatch/"}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	obj := s.prefix + filepath.Base(name)
	wc := s.client.Bucket(s.bucket).Object(obj).NewWriter(ctx)
	wc.ContentType = "image/jpeg"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, obj), nil
}

func (s *GCSStore) Close() error { return s.client.Close() }
