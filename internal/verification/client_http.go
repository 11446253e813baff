package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"academia/internal/platform/upstream"
	"academia/internal/upload"
)

const serviceName = "verification"

// HTTPConfig configures HTTPVerifier.
type HTTPConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// HTTPVerifier calls POST {BaseURL}/verify with the image as multipart field "file".
type HTTPVerifier struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPVerifier creates an HTTPVerifier.
func NewHTTPVerifier(cfg HTTPConfig) (*HTTPVerifier, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("verification base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPVerifier{baseURL: baseURL, httpClient: httpClient}, nil
}

func (v *HTTPVerifier) Verify(ctx context.Context, file upload.File) (Result, error) {
	body, contentType, err := multipartFile(file)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/verify", body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Result{}, upstream.FromTransport(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := upstream.ReadBody(serviceName, resp.Body, upstream.MaxResponseBytes)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, upstream.FromStatus(serviceName, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, upstream.NewError(upstream.ErrorBadData, serviceName, "failed to decode response", err)
	}
	return result, nil
}

func multipartFile(file upload.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
