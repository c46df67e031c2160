package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"CyMarker/internal/apperror"
	"CyMarker/internal/repo"
)

var isPostgres = repo.IsPostgresDSN

// errorBody — тело ответа об ошибке.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// responder пишет JSON-ответы и переводит ошибки в статусы.
type responder struct {
	logger     *zap.SugaredLogger
	production bool
}

func newResponder(logger *zap.SugaredLogger, production bool) *responder {
	return &responder{logger: logger, production: production}
}

func (p *responder) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		p.logger.Warnw("write response failed", "error", err)
	}
}

// statusOf — HTTP-статус для вида ошибки.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error отвечает ошибкой. Внутренние ошибки логируются, а в production
// клиент не видит деталей.
func (p *responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}

	var ae *apperror.Error
	if errors.As(err, &ae) {
		body.Error, body.Field = ae.Message, ae.Field
	}
	if status == http.StatusRequestEntityTooLarge {
		body.Error = "request body too large"
	}
	if status == http.StatusInternalServerError {
		p.logger.Errorw("request failed", "method", r.Method, "uri", r.RequestURI, "error", err)
		if p.production {
			body = errorBody{Error: "internal server error"}
		}
	}
	p.JSON(w, status, body)
}

// decodeJSON читает тело запроса в v. Ошибки разбора дают apperror.Validation.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperror.Validation(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
		}
		if errors.Is(err, io.EOF) {
			return apperror.Validation("", "request body is empty")
		}
		return apperror.Validation("", "malformed JSON body")
	}
	return nil
}
