package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "academia/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("unsupported media includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeUnsupportedMedia, "only image files are accepted"))

		if w.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("expected status %d, got %d", http.StatusUnsupportedMediaType, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "unsupported_media_type" {
			t.Fatalf("expected error code unsupported_media_type, got %q", body["error"])
		}
		if body["error_description"] != "only image files are accepted" {
			t.Fatalf("expected error_description to be returned")
		}
	})
}

func newMultipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadFormFile(t *testing.T) {
	t.Run("reads the part", func(t *testing.T) {
		req := newMultipartRequest(t, "file", "scan.png", []byte("payload"))
		file, err := ReadFormFile(req, "file", 1024)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file.Name != "scan.png" || string(file.Data) != "payload" {
			t.Fatalf("unexpected file: %+v", file)
		}
	})

	t.Run("missing part is a validation error", func(t *testing.T) {
		req := newMultipartRequest(t, "", "", nil)
		_, err := ReadFormFile(req, "file", 1024)
		if !dErrors.Is(err, dErrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("oversized part is rejected", func(t *testing.T) {
		req := newMultipartRequest(t, "file", "big.png", bytes.Repeat([]byte("a"), 64))
		_, err := ReadFormFile(req, "file", 16)
		if !dErrors.Is(err, dErrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("non multipart body is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		_, err := ReadFormFile(req, "file", 1024)
		if !dErrors.Is(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})
}
