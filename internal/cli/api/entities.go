package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"CyMarker/internal/model"
)

func (c *Client) Images(ctx context.Context) ([]model.Image, error) {
	var out struct {
		Images []model.Image `json:"images"`
	}
	_, err := c.do(ctx, http.MethodGet, "/api/Image", nil, &out)
	return out.Images, err
}

func (c *Client) CreateImage(ctx context.Context, extension string, x, y int) (*model.Image, error) {
	var out struct {
		Image *model.Image `json:"image"`
	}
	_, err := c.do(ctx, http.MethodPost, "/api/Image", map[string]any{
		"extension": extension, "x": x, "y": y,
	}, &out)
	return out.Image, err
}

func (c *Client) MoveImage(ctx context.Context, id string, x, y int) (*model.Image, error) {
	var out struct {
		Image *model.Image `json:"image"`
	}
	_, err := c.do(ctx, http.MethodPatch, "/api/Image/"+url.PathEscape(id), map[string]int{"x": x, "y": y}, &out)
	return out.Image, err
}

func (c *Client) DeleteImage(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/Image/"+url.PathEscape(id), nil, nil)
	return err
}

// UploadImage отправляет файл изображения и возвращает путь, по которому он доступен.
func (c *Client) UploadImage(ctx context.Context, id string, r io.Reader, size int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+"/api/Image/"+url.PathEscape(id)+"/blob", r)
	if err != nil {
		return "", err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.send(req, nil)
	if err != nil {
		return "", err
	}
	loc := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusFound || loc == "" {
		return "", fmt.Errorf("unexpected upload response: %d", resp.StatusCode)
	}
	return loc, nil
}

func (c *Client) Markers(ctx context.Context) ([]model.Marker, error) {
	var out struct {
		Markers []model.Marker `json:"markers"`
	}
	_, err := c.do(ctx, http.MethodGet, "/api/Marker", nil, &out)
	return out.Markers, err
}

// CreateMarker создаёт маркер с первым комментарием. imageID может быть пустым.
func (c *Client) CreateMarker(ctx context.Context, imageID string, x, y int, text string) (*model.Marker, *model.Comment, error) {
	payload := map[string]any{"x": x, "y": y, "text": text}
	if imageID != "" {
		payload["imageId"] = imageID
	}
	var out struct {
		Marker  *model.Marker  `json:"marker"`
		Comment *model.Comment `json:"comment"`
	}
	_, err := c.do(ctx, http.MethodPost, "/api/Marker", payload, &out)
	return out.Marker, out.Comment, err
}

func (c *Client) MoveMarker(ctx context.Context, id string, x, y int) (*model.Marker, error) {
	var out struct {
		Marker *model.Marker `json:"marker"`
	}
	_, err := c.do(ctx, http.MethodPatch, "/api/Marker/"+url.PathEscape(id), map[string]int{"x": x, "y": y}, &out)
	return out.Marker, err
}

func (c *Client) DeleteMarker(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/Marker/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) Comments(ctx context.Context, markerID string) ([]model.Comment, error) {
	var out struct {
		Comments []model.Comment `json:"comments"`
	}
	_, err := c.do(ctx, http.MethodGet, "/api/Marker/"+url.PathEscape(markerID)+"/Comment", nil, &out)
	return out.Comments, err
}

func (c *Client) AddComment(ctx context.Context, markerID, text string) (*model.Comment, error) {
	var out struct {
		Comment *model.Comment `json:"comment"`
	}
	_, err := c.do(ctx, http.MethodPost, "/api/Marker/"+url.PathEscape(markerID)+"/Comment", map[string]string{"text": text}, &out)
	return out.Comment, err
}

func (c *Client) DeleteComment(ctx context.Context, markerID, commentID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/Marker/"+url.PathEscape(markerID)+"/Comment/"+url.PathEscape(commentID), nil, nil)
	return err
}
