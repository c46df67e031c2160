package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"CyMarker/internal/apperror"
)

type signUp struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,email,min=3"`
	Password string `json:"password" validate:"required"`
}

type imageReq struct {
	Extension string `json:"extension" validate:"oneof=jpg jpeg png gif"`
	X         int    `json:"x" validate:"gte=0"`
}

type commentReq struct {
	Text string `json:"text" validate:"notblank"`
}

func TestStruct(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		field string
	}{
		{"ok", &signUp{Name: "a", Username: "a@b.co", Password: "p"}, ""},
		{"missing name", &signUp{Username: "a@b.co", Password: "p"}, "name"},
		{"not an email", &signUp{Name: "a", Username: "nope", Password: "p"}, "username"},
		{"bad extension", &imageReq{Extension: "bmp"}, "extension"},
		{"negative x", &imageReq{Extension: "png", X: -1}, "x"},
		{"blank text", &commentReq{Text: "   "}, "text"},
		{"text ok", &commentReq{Text: "hi"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrValidation)
			var ae *apperror.Error
			if assert.True(t, errors.As(err, &ae)) {
				assert.Equal(t, tc.field, ae.Field)
				assert.Contains(t, ae.Message, tc.field)
			}
		})
	}
}
