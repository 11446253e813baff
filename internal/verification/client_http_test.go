package verification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academia/internal/platform/upstream"
	"academia/internal/upload"
)

func TestHTTPVerifier(t *testing.T) {
	t.Run("posts the image and decodes the contract", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/verify", r.URL.Path)

			f, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, "card.png", hdr.Filename)
			assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
			assert.Equal(t, []byte{1, 2, 3}, data)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"name":"Sidhesh Shah","year":2024}}`))
		}))
		defer srv.Close()

		v, err := NewHTTPVerifier(HTTPConfig{BaseURL: srv.URL + "/"})
		require.NoError(t, err)

		res, err := v.Verify(context.Background(), upload.File{Name: "card.png", ContentType: "image/png", Data: []byte{1, 2, 3}})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "Sidhesh Shah", res.Data["name"])
		assert.Equal(t, float64(2024), res.Data["year"])
	})

	t.Run("non-2xx is categorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		v, err := NewHTTPVerifier(HTTPConfig{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), upload.File{Name: "a.png", Data: []byte{1}})
		require.Error(t, err)
		assert.Equal(t, upstream.ErrorOutage, upstream.GetCategory(err))
	})

	t.Run("malformed body is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		v, err := NewHTTPVerifier(HTTPConfig{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), upload.File{Name: "a.png", Data: []byte{1}})
		assert.Equal(t, upstream.ErrorBadData, upstream.GetCategory(err))
	})

	t.Run("oversized body is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"message":"`))
			_, _ = w.Write([]byte(strings.Repeat("x", int(upstream.MaxResponseBytes))))
			_, _ = w.Write([]byte(`"}`))
		}))
		defer srv.Close()

		v, err := NewHTTPVerifier(HTTPConfig{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), upload.File{Name: "a.png", Data: []byte{1}})
		assert.Equal(t, upstream.ErrorBadData, upstream.GetCategory(err))
	})

	t.Run("base URL required", func(t *testing.T) {
		_, err := NewHTTPVerifier(HTTPConfig{})
		assert.Error(t, err)
	})
}
