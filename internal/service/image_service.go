package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/storage"
)

const DefaultMaxImageBytes = 5 << 20

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

// ImageService stores gallery uploads and their metadata.
type ImageService interface {
	Upload(ctx context.Context, in ImageUpload) (*model.Image, error)
	List(ctx context.Context, limit, offset int) ([]*model.Image, error)
	// Delete removes the row and both files.
	Delete(ctx context.Context, id int64) error
}

// ImageUpload is one received file. ContentType is the sniffed type, not the
// client's claim.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
	UploadedBy  *int64
}

// ImageFiles is satisfied by *storage.ImageStore.
type ImageFiles interface {
	Put(ctx context.Context, data []byte, contentType string) (*storage.StoredImage, error)
	Remove(ctx context.Context, key string) error
}

type imageServiceImpl struct {
	repo     repository.ImageRepository
	files    ImageFiles
	maxBytes int64
}

func NewImageService(repo repository.ImageRepository, files ImageFiles, maxBytes int64) ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &imageServiceImpl{repo: repo, files: files, maxBytes: maxBytes}
}

func (s *imageServiceImpl) Upload(ctx context.Context, in ImageUpload) (*model.Image, error) {
	if _, ok := storage.ImageExtensions[in.ContentType]; !ok {
		return nil, ErrUnsupportedImage
	}
	if int64(len(in.Data)) > s.maxBytes {
		return nil, ErrImageTooLarge
	}
	if len(in.Data) == 0 {
		return nil, apperr.Validation("image", "image is empty")
	}

	stored, err := s.files.Put(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "store image", err)
	}

	name := strings.TrimSpace(filepath.Base(in.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = filepath.Base(stored.Key)
	}
	img := &model.Image{
		Name:         name,
		Key:          stored.Key,
		URL:          stored.URL,
		ThumbnailURL: stored.ThumbnailURL,
		Size:         int64(len(in.Data)),
		ContentType:  in.ContentType,
		UploadedBy:   in.UploadedBy,
	}
	if err := s.repo.Insert(ctx, img); err != nil {
		// 行が無いファイルは誰も消せないので、ここで片付ける
		if rmErr := s.files.Remove(context.WithoutCancel(ctx), stored.Key); rmErr != nil {
			slog.Error("orphaned image files", "key", stored.Key, "error", rmErr)
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "insert image", err)
	}
	return img, nil
}

func (s *imageServiceImpl) List(ctx context.Context, limit, offset int) ([]*model.Image, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *imageServiceImpl) Delete(ctx context.Context, id int64) error {
	img, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.Remove(ctx, img.Key); err != nil {
		slog.Warn("image files not removed", "image_id", id, "key", img.Key, "error", err)
	}
	return nil
}
