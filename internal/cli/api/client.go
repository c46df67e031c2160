// Package api — HTTP- и WebSocket-клиент CyMarker для CLI.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"CyMarker/internal/model"
)

const defaultTimeout = 30 * time.Second

// Error — ответ сервера с кодом не 2xx.
type Error struct {
	Status  int
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Client вызывает REST API сервера. Token передаётся как Authorization: Bearer.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient создаёт клиент для сервера по адресу baseURL (http://host:port).
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: defaultTimeout,
			// редирект после загрузки блоба разбираем сами
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do отправляет запрос и декодирует JSON-ответ в out (если out не nil).
func (c *Client) do(ctx context.Context, method, path string, payload, out any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) (*http.Response, error) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, decodeError(resp.StatusCode, raw)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = http.StatusText(status)
		}
	}
	return &Error{Status: status, Message: body.Error, Field: body.Field}
}

// Register — POST /api/User.
func (c *Client) Register(ctx context.Context, name, username, password string) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	_, err := c.do(ctx, http.MethodPost, "/api/User", map[string]string{
		"name": name, "username": username, "password": password,
	}, &out)
	return out.User, err
}

// Login — PUT /api/Me. Возвращает пользователя и сессионный токен.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	var out struct {
		User    *model.User `json:"user"`
		CYToken string      `json:"cyToken"`
	}
	if _, err := c.do(ctx, http.MethodPut, "/api/Me", map[string]string{
		"username": username, "password": password,
	}, &out); err != nil {
		return nil, "", err
	}
	return out.User, out.CYToken, nil
}

// Logout — DELETE /api/Me.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/Me", nil, nil)
	return err
}

// Me — GET /api/Me.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	_, err := c.do(ctx, http.MethodGet, "/api/Me", nil, &out)
	return out.User, err
}

// ChangePassword — PUT /api/Me/password. Возвращает новый токен.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	var out struct {
		CYToken string `json:"cyToken"`
	}
	_, err := c.do(ctx, http.MethodPut, "/api/Me/password", map[string]string{
		"oldPassword": oldPassword, "newPassword": newPassword,
	}, &out)
	return out.CYToken, err
}
