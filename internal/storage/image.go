package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const defaultThumbnailWidth = 320

// ImageExtensions maps accepted upload types to file extensions.
var ImageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// StoredImage locates an uploaded image and its thumbnail.
type StoredImage struct {
	Key          string
	URL          string
	ThumbnailURL string
}

// ImageStore saves uploaded images with a fixed-width thumbnail beside them.
type ImageStore struct {
	store      Storage
	thumbWidth int
}

func NewImageStore(store Storage, thumbWidth int) *ImageStore {
	if thumbWidth <= 0 {
		thumbWidth = defaultThumbnailWidth
	}
	return &ImageStore{store: store, thumbWidth: thumbWidth}
}

// ThumbnailKey is where the thumbnail of key lives.
func ThumbnailKey(key string) string {
	return path.Join(path.Dir(key), "thumbs", path.Base(key))
}

// Put stores data under a fresh key. Formats the decoder does not know
// (webp) are kept without a thumbnail.
func (s *ImageStore) Put(ctx context.Context, data []byte, contentType string) (*StoredImage, error) {
	ext, ok := ImageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported image type %q", contentType)
	}
	key := "images/" + uuid.NewString() + ext

	url, err := s.store.Save(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, err
	}
	out := &StoredImage{Key: key, URL: url}

	thumb, err := s.thumbnail(data, ext)
	if err != nil {
		slog.Info("thumbnail skipped", "key", key, "error", err)
		return out, nil
	}
	thumbURL, err := s.store.Save(ctx, ThumbnailKey(key), bytes.NewReader(thumb), contentType)
	if err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	out.ThumbnailURL = thumbURL
	return out, nil
}

func (s *ImageStore) thumbnail(data []byte, ext string) ([]byte, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > s.thumbWidth {
		img = imaging.Resize(img, s.thumbWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Remove deletes the image and its thumbnail.
func (s *ImageStore) Remove(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, ThumbnailKey(key)); err != nil {
		return err
	}
	return s.store.Delete(ctx, key)
}
