package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"CyMarker/internal/apperror"
	"CyMarker/internal/model"
)

// decodePositionPatch читает частичное обновление {x?, y?}. Поля, не являющиеся
// целыми числами, молча отбрасываются; прочие ключи игнорируются.
func decodePositionPatch(r *http.Request) (model.PositionPatch, error) {
	var patch model.PositionPatch

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return patch, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return patch, nil
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return patch, err
		}
		return patch, apperror.Validation("", "body must be a JSON object")
	}

	patch.X = integral(raw["x"])
	patch.Y = integral(raw["y"])
	return patch, nil
}

// integral возвращает значение, если v — целое число в диапазоне int.
func integral(v any) *int {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		out := int(i)
		return &out
	}
	// 5.0 тоже целое
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f > math.MaxInt {
		return nil
	}
	out := int(f)
	return &out
}
