package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio/internal/config"
	apperrors "portfolio/pkg/errors"
)

// Uploaded images are scaled down to fit this box
const (
	imageMaxWidth  = 800
	imageMaxHeight = 600
	jpegQuality    = 85
)

var allowedImageExtensions = map[string]imaging.Format{
	".jpg":  imaging.JPEG,
	".jpeg": imaging.JPEG,
	".png":  imaging.PNG,
	".gif":  imaging.GIF,
}

// Storage saves and removes public files
type Storage interface {
	// Save writes data under key and returns its public URL
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorage keeps files on the local filesystem
type LocalStorage struct {
	baseDir   string
	urlPrefix string
}

// NewLocalStorage creates a LocalStorage rooted at baseDir and served under urlPrefix
func NewLocalStorage(baseDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (s *LocalStorage) Save(_ context.Context, key string, data io.Reader) (string, error) {
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("storage: write: %w", err)
	}

	return s.urlPrefix + "/" + key, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

// ImageService resizes uploaded project images and stores them
type ImageService struct {
	storage   Storage
	urlPrefix string
	maxBytes  int64
	log       *zap.Logger
}

// NewImageService creates a new image service
func NewImageService(storage Storage, cfg *config.UploadConfig, log *zap.Logger) *ImageService {
	return &ImageService{
		storage:   storage,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/") + "/",
		maxBytes:  cfg.MaxBytes,
		log:       log.Named("images"),
	}
}

// SaveProjectImage decodes an upload, scales it to fit 800x600 and stores it
// under a random name. It returns the public URL.
func (s *ImageService) SaveProjectImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	format, ok := allowedImageExtensions[ext]
	if !ok {
		return "", NewFieldError("image", "must be a jpg, jpeg, png or gif file")
	}

	raw, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeBadRequest, "failed to read upload", err)
	}
	if int64(len(raw)) > s.maxBytes {
		return "", NewFieldError("image", fmt.Sprintf("must be at most %d bytes", s.maxBytes))
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", NewFieldError("image", "is not a readable image")
	}
	img = imaging.Fit(img, imageMaxWidth, imageMaxHeight, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", NewInternalError("failed to encode image", err)
	}

	key := path.Join("projects", uuid.NewString()+ext)
	url, err := s.storage.Save(ctx, key, &out)
	if err != nil {
		s.log.Error("image upload failed", zap.String("key", key), zap.Error(err))
		return "", NewInternalError("failed to store image", err)
	}

	s.log.Info("image stored", zap.String("url", url), zap.Int("bytes", out.Len()))
	return url, nil
}

// Discard removes an image previously returned by SaveProjectImage. URLs that
// were not issued by this service are ignored.
func (s *ImageService) Discard(ctx context.Context, url string) {
	key, ok := strings.CutPrefix(url, s.urlPrefix)
	if !ok || !strings.HasPrefix(key, "projects/") || strings.Contains(key, "..") {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.Warn("failed to remove image", zap.String("key", key), zap.Error(err))
	}
}
