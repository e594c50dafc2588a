package service

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/storage"
)

type mockImageRepository struct {
	rows       map[int64]*model.Image
	insertFunc func(ctx context.Context, img *model.Image) error
}

func (m *mockImageRepository) Insert(ctx context.Context, img *model.Image) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, img)
	}
	img.ID = int64(len(m.rows) + 1)
	m.rows[img.ID] = img
	return nil
}

func (m *mockImageRepository) List(context.Context, int, int) ([]*model.Image, error) {
	return nil, nil
}

func (m *mockImageRepository) FindByID(_ context.Context, id int64) (*model.Image, error) {
	img, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return img, nil
}

func (m *mockImageRepository) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func newImageFixture(t *testing.T) (string, *mockImageRepository, ImageService) {
	t.Helper()
	dir := t.TempDir()
	repo := &mockImageRepository{rows: map[int64]*model.Image{}}
	files := storage.NewImageStore(storage.NewLocalStorage(dir, "/uploads"), 320)
	return dir, repo, NewImageService(repo, files, 0)
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestImageService_Upload_WritesThumbnail(t *testing.T) {
	dir, _, svc := newImageFixture(t)

	img, err := svc.Upload(context.Background(), ImageUpload{Name: "../hero.png", ContentType: "image/png", Data: pngBytes(t, 800, 600)})
	if err != nil {
		t.Fatal(err)
	}
	if img.Name != "hero.png" || img.ThumbnailURL == "" || img.URL == img.ThumbnailURL {
		t.Errorf("unexpected image %+v", img)
	}

	thumb, err := imaging.Open(filepath.Join(dir, filepath.FromSlash(storage.ThumbnailKey(img.Key))))
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	if thumb.Bounds().Dx() != 320 || thumb.Bounds().Dy() != 240 {
		t.Errorf("expected 320x240 thumbnail, got %v", thumb.Bounds())
	}
}

func TestImageService_Upload_Rejects(t *testing.T) {
	_, _, svc := newImageFixture(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, ImageUpload{ContentType: "image/svg+xml", Data: []byte("<svg/>")}); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
	big := make([]byte, DefaultMaxImageBytes+1)
	if _, err := svc.Upload(ctx, ImageUpload{ContentType: "image/jpeg", Data: big}); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestImageService_Upload_InsertFailureRemovesFiles(t *testing.T) {
	dir, repo, svc := newImageFixture(t)
	repo.insertFunc = func(context.Context, *model.Image) error { return errors.New("db down") }

	if _, err := svc.Upload(context.Background(), ImageUpload{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, 10, 10)}); err == nil {
		t.Fatal("expected error")
	}
	if files := storedFiles(t, dir); len(files) != 0 {
		t.Errorf("expected no files left, got %v", files)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestImageService_Delete_RemovesBothFiles(t *testing.T) {
	dir, repo, svc := newImageFixture(t)
	ctx := context.Background()

	img, err := svc.Upload(ctx, ImageUpload{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, 400, 400)})
	if err != nil {
		t.Fatal(err)
	}
	if files := storedFiles(t, dir); len(files) != 2 {
		t.Fatalf("expected image and thumbnail, got %v", files)
	}

	if err := svc.Delete(ctx, img.ID); err != nil {
		t.Fatal(err)
	}
	if files := storedFiles(t, dir); len(files) != 0 {
		t.Errorf("expected files removed, got %v", files)
	}
	if len(repo.rows) != 0 {
		t.Error("row not deleted")
	}
	if err := svc.Delete(ctx, img.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
