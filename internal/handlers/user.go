package handlers

import (
	"net/http"

	"CyMarker/internal/config"
	"CyMarker/internal/middleware"
	"CyMarker/internal/model"
	"CyMarker/internal/service"
	"CyMarker/internal/validation"
)

// UserHandler — регистрация, вход, выход и профиль.
type UserHandler struct {
	UserService *service.UserService
	resp        *responder
	Config      *config.Config
}

func NewUserHandler(userService *service.UserService, resp *responder, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, resp: resp, Config: cfg}
}

type signUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,email,min=3"`
	Password string `json:"password" validate:"required"`
}

type signInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type userResponse struct {
	User *model.User `json:"user"`
}

// signUpResponse повторяет присланный пароль рядом с созданным пользователем.
type signUpResponse struct {
	User     *model.User `json:"user"`
	Password string      `json:"password"`
}

type sessionResponse struct {
	User    *model.User `json:"user"`
	CYToken string      `json:"cyToken"`
}

// SignUp — POST /api/User.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, err := h.UserService.SignUp(r.Context(), req.Name, req.Username, req.Password)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, signUpResponse{User: user, Password: req.Password})
}

// SignIn — PUT /api/Me: выдаёт токен в теле и в cookie.
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, token, err := h.UserService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	middleware.SetLoginCookie(w, r, token)
	h.resp.JSON(w, http.StatusOK, sessionResponse{User: user, CYToken: token})
}

// SignOut — DELETE /api/Me: 205 и пустая cookie.
func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	middleware.ClearLoginCookie(w, r)
	w.WriteHeader(http.StatusResetContent)
}

// Me — GET /api/Me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	h.resp.JSON(w, http.StatusOK, userResponse{User: user})
}

// ChangePassword — PUT /api/Me/password. Прежние токены перестают действовать.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	updated, token, err := h.UserService.ChangePassword(r.Context(), user, req.OldPassword, req.NewPassword)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	middleware.SetLoginCookie(w, r, token)
	h.resp.JSON(w, http.StatusOK, sessionResponse{User: updated, CYToken: token})
}
