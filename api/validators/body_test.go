package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONBody(t *testing.T) {
	cases := map[string]struct {
		body    string
		message string
	}{
		"malformed":      {body: `{"username":`, message: "Request body must be valid JSON"},
		"unknown field":  {body: `{"username":"crio-user","password":"learnbydoing","email":"x"}`, message: "Request body must be valid JSON"},
		"missing field":  {body: `{"username":"crio-user"}`, message: "password is required"},
		"short password": {body: `{"username":"crio-user","password":"abc"}`, message: "password must be at least 6 characters"},
		"short username": {body: `{"username":"crio","password":"learnbydoing"}`, message: "username must be at least 6 characters"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest types.Registration
			err := DecodeJSONBody(req, &dest)
			require.Error(t, err)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
			require.Equal(t, tc.message, pkgerrors.As(err).Message())
		})
	}
}

func TestDecodeJSONBodyCartUpdate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"KCRwjF7lN97HnEaY","qty":0}`))
	var update types.CartUpdate
	require.NoError(t, DecodeJSONBody(req, &update))
	require.NotNil(t, update.Qty)
	require.Equal(t, 0, *update.Qty)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"KCRwjF7lN97HnEaY","qty":-1}`))
	err := DecodeJSONBody(req, &types.CartUpdate{})
	require.Equal(t, "qty must be at least 0", pkgerrors.As(err).Message())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"KCRwjF7lN97HnEaY"}`))
	err = DecodeJSONBody(req, &types.CartUpdate{})
	require.Equal(t, "qty is required", pkgerrors.As(err).Message())
}

func TestSanitizeString(t *testing.T) {
	cases := map[string]struct {
		in     string
		maxLen int
		want   string
	}{
		"trims":           {in: "  shoes ", maxLen: 10, want: "shoes"},
		"folds spaces":    {in: "running \t  shoes", maxLen: 0, want: "running shoes"},
		"truncates":       {in: "sneakers", maxLen: 5, want: "sneak"},
		"multibyte runes": {in: "café crème", maxLen: 4, want: "café"},
		"empty":           {in: "   ", maxLen: 5, want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, SanitizeString(tc.in, tc.maxLen))
		})
	}
}
