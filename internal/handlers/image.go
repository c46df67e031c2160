package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"CyMarker/internal/apperror"
	"CyMarker/internal/config"
	"CyMarker/internal/middleware"
	"CyMarker/internal/model"
	"CyMarker/internal/service"
	"CyMarker/internal/validation"
)

// UploadPath — префикс, по которому раздаются файлы изображений.
const UploadPath = "/upload"

// ImageHandler — изображения и загрузка их файлов.
type ImageHandler struct {
	ImageService *service.ImageService
	resp         *responder
	Config       *config.Config
}

func NewImageHandler(imageService *service.ImageService, resp *responder, cfg *config.Config) *ImageHandler {
	return &ImageHandler{ImageService: imageService, resp: resp, Config: cfg}
}

type createImageRequest struct {
	Extension string `json:"extension" validate:"required,oneof=jpg jpeg png gif"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

type imageResponse struct {
	Image *model.Image `json:"image"`
}

type imagesResponse struct {
	Images []model.Image `json:"images"`
}

func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.ImageService.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if images == nil {
		images = []model.Image{}
	}
	h.resp.JSON(w, http.StatusOK, imagesResponse{Images: images})
}

func (h *ImageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var req createImageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	img, err := h.ImageService.Create(r.Context(), user, req.Extension, req.X, req.Y)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, imageResponse{Image: img})
}

func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	img, err := h.ImageService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, imageResponse{Image: img})
}

// Update — PATCH /api/Image/{id}: меняет только присланные x, y.
func (h *ImageHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePositionPatch(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	img, err := h.ImageService.UpdatePosition(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, imageResponse{Image: img})
}

// Delete — DELETE /api/Image/{id}, только владелец.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	if err := h.ImageService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutBlob — PUT /api/Image/{id}/blob: тело запроса сохраняется как файл изображения,
// затем редирект на его адрес.
func (h *ImageHandler) PutBlob(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	limit := h.Config.BlobMaxBytes()
	if r.ContentLength > limit {
		h.resp.Error(w, r, &http.MaxBytesError{Limit: limit})
		return
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	name, err := h.ImageService.PutBlob(r.Context(), user, chi.URLParam(r, "id"), body, r.ContentLength)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	http.Redirect(w, r, path.Join(UploadPath, name), http.StatusFound)
}

// ServeBlob — GET /upload/{name}.
func (h *ImageHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.ImageService.OpenBlob(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			err = apperror.NotFound("blob", name)
		}
		h.resp.Error(w, r, err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := io.Copy(w, rc); err != nil {
		h.resp.logger.Debugw("serve blob interrupted", "name", name, "error", err)
	}
}
