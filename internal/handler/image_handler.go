package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

// ImageHandler はギャラリー画像のアップロード・一覧・削除を処理する
type ImageHandler struct {
	svc      service.ImageService
	maxBytes int64
}

// NewImageHandler は ImageHandler を生成する
func NewImageHandler(svc service.ImageService, maxBytes int64) *ImageHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxImageBytes
	}
	return &ImageHandler{svc: svc, maxBytes: maxBytes}
}

// Upload は POST /api/admin/images を処理する（multipart フィールド名は "image"）
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// multipart のヘッダー分だけ余裕を持たせる
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file_too_large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_required")
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeError(w, http.StatusBadRequest, "file_too_large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_required")
		return
	}

	// クライアント申告の Content-Type は信用せず、中身から判定する
	in := service.ImageUpload{
		Name:        header.Filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		in.UploadedBy = &id
	}

	img, err := h.svc.Upload(r.Context(), in)
	switch {
	case errors.Is(err, service.ErrUnsupportedImage):
		writeError(w, http.StatusBadRequest, "invalid_content_type")
		return
	case errors.Is(err, service.ErrImageTooLarge):
		writeError(w, http.StatusBadRequest, "file_too_large")
		return
	case err != nil:
		writeFailure(w, r, err, "upload_failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"image": img})
}

// List は GET /api/admin/images を処理する
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.svc.List(r.Context(), queryInt(r, "limit", 50, 1, 100), queryInt(r, "offset", 0, 0, 1<<31-1))
	if err != nil {
		writeFailure(w, r, err, "list_failed")
		return
	}
	if images == nil {
		images = []*model.Image{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

// Delete は DELETE /api/admin/images/{id} を処理する
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
