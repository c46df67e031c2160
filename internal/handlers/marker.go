package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"CyMarker/internal/middleware"
	"CyMarker/internal/model"
	"CyMarker/internal/service"
	"CyMarker/internal/validation"
)

// MarkerHandler — маркеры и их комментарии.
type MarkerHandler struct {
	MarkerService *service.MarkerService
	resp          *responder
}

func NewMarkerHandler(markerService *service.MarkerService, resp *responder) *MarkerHandler {
	return &MarkerHandler{MarkerService: markerService, resp: resp}
}

type createMarkerRequest struct {
	ImageID *string `json:"imageId" validate:"omitempty,uuid"`
	X       int     `json:"x" validate:"gte=0"`
	Y       int     `json:"y" validate:"gte=0"`
	Text    string  `json:"text" validate:"notblank"`
}

type addCommentRequest struct {
	Text string `json:"text" validate:"notblank"`
}

type markerResponse struct {
	Marker *model.Marker `json:"marker"`
}

type markersResponse struct {
	Markers []model.Marker `json:"markers"`
}

type markerWithCommentResponse struct {
	Marker  *model.Marker  `json:"marker"`
	Comment *model.Comment `json:"comment"`
}

type commentResponse struct {
	Comment *model.Comment `json:"comment"`
}

type commentsResponse struct {
	Comments []model.Comment `json:"comments"`
}

func (h *MarkerHandler) List(w http.ResponseWriter, r *http.Request) {
	markers, err := h.MarkerService.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if markers == nil {
		markers = []model.Marker{}
	}
	h.resp.JSON(w, http.StatusOK, markersResponse{Markers: markers})
}

// Create — POST /api/Marker: маркер и первый комментарий одной операцией.
func (h *MarkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var req createMarkerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	m, c, err := h.MarkerService.Create(r.Context(), user, req.ImageID, req.X, req.Y, req.Text)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, markerWithCommentResponse{Marker: m, Comment: c})
}

func (h *MarkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.MarkerService.Get(r.Context(), chi.URLParam(r, "markerId"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, markerResponse{Marker: m})
}

func (h *MarkerHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePositionPatch(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	m, err := h.MarkerService.UpdatePosition(r.Context(), chi.URLParam(r, "markerId"), patch)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, markerResponse{Marker: m})
}

func (h *MarkerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.MarkerService.Delete(r.Context(), chi.URLParam(r, "markerId")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarkerHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.MarkerService.ListComments(r.Context(), chi.URLParam(r, "markerId"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	h.resp.JSON(w, http.StatusOK, commentsResponse{Comments: comments})
}

func (h *MarkerHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var req addCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	c, err := h.MarkerService.AddComment(r.Context(), user, chi.URLParam(r, "markerId"), req.Text)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, commentResponse{Comment: c})
}

// DeleteComment — удаление последнего комментария удаляет и маркер.
func (h *MarkerHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	_, err := h.MarkerService.DeleteComment(r.Context(), chi.URLParam(r, "markerId"), chi.URLParam(r, "commentId"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
