// Package httputil holds the response helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "academia/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the error envelope. Internal errors never
// expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// FormFile is a file part read from a multipart request.
type FormFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadFormFile reads the named multipart file part, bounded by maxBytes.
// The returned error is already coded for WriteError.
func ReadFormFile(r *http.Request, field string, maxBytes int64) (FormFile, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return FormFile{}, dErrors.New(dErrors.CodeValidation, "file is too large")
		}
		return FormFile{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return FormFile{}, dErrors.New(dErrors.CodeValidation, field+" is required")
		}
		return FormFile{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return FormFile{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read "+field)
	}
	if int64(len(data)) > maxBytes {
		return FormFile{}, dErrors.New(dErrors.CodeValidation, "file is too large")
	}

	return FormFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
