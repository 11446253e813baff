// Package pinata pins content through the Pinata v3 uploads API.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"academia/internal/pinning"
	"academia/internal/platform/upstream"
	"academia/internal/upload"
)

const (
	serviceName      = "pinata"
	defaultUploadURL = "https://uploads.pinata.cloud/v3"
)

var (
	ErrMissingJWT   = errors.New("pinata: JWT is required")
	ErrMalformedJWT = errors.New("pinata: JWT is malformed")
	ErrExpiredJWT   = errors.New("pinata: JWT has expired")
	ErrMissingHost  = errors.New("pinata: gateway is required")
)

// Config configures the client.
type Config struct {
	JWT        string
	Gateway    string
	UploadURL  string
	HTTPClient *http.Client
	// Now is used for the token expiry check; defaults to time.Now.
	Now func() time.Time
}

// Client implements pinning.Pinner against Pinata.
type Client struct {
	jwt        string
	gateway    string
	uploadURL  string
	httpClient *http.Client
}

var _ pinning.Pinner = (*Client)(nil)

// NewClient validates cfg and returns a Client. An expired JWT is rejected
// here so the server refuses to start rather than failing on the first mint.
func NewClient(cfg Config) (*Client, error) {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	token := strings.TrimSpace(cfg.JWT)
	if err := CheckJWT(token, now()); err != nil {
		return nil, err
	}

	gateway := strings.TrimRight(strings.TrimSpace(cfg.Gateway), "/")
	if gateway == "" {
		return nil, ErrMissingHost
	}
	if !strings.HasPrefix(gateway, "http://") && !strings.HasPrefix(gateway, "https://") {
		gateway = "https://" + gateway
	}

	uploadURL := strings.TrimRight(strings.TrimSpace(cfg.UploadURL), "/")
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		jwt:        token,
		gateway:    gateway,
		uploadURL:  uploadURL,
		httpClient: httpClient,
	}, nil
}

// CheckJWT inspects the token's claims without verifying its signature,
// which only Pinata can do, and rejects a token that has already expired.
func CheckJWT(token string, now time.Time) error {
	if token == "" {
		return ErrMissingJWT
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJWT, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJWT, err)
	}
	if exp != nil && !exp.After(now) {
		return fmt.Errorf("%w at %s", ErrExpiredJWT, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

type uploadResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		CID      string `json:"cid"`
		Size     int64  `json:"size"`
		MimeType string `json:"mime_type"`
		Network  string `json:"network"`
	} `json:"data"`
}

func (c *Client) PinFile(ctx context.Context, file upload.File) (pinning.Asset, error) {
	name := file.Name
	if name == "" {
		name = "file"
	}
	return c.upload(ctx, name, file.ContentType, file.Data)
}

func (c *Client) PinJSON(ctx context.Context, name string, doc any) (pinning.Asset, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return pinning.Asset{}, fmt.Errorf("encode json: %w", err)
	}
	if name == "" {
		name = "metadata.json"
	}
	return c.upload(ctx, name, "application/json", data)
}

func (c *Client) GatewayURL(cid string) string {
	return c.gateway + "/ipfs/" + cid
}

func (c *Client) upload(ctx context.Context, name, contentType string, data []byte) (pinning.Asset, error) {
	body, formType, err := multipartUpload(name, contentType, data)
	if err != nil {
		return pinning.Asset{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL+"/files", body)
	if err != nil {
		return pinning.Asset{}, err
	}
	request.Header.Set("Authorization", "Bearer "+c.jwt)
	request.Header.Set("Content-Type", formType)
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return pinning.Asset{}, upstream.FromTransport(serviceName, err)
	}
	defer response.Body.Close()

	responseBody, err := upstream.ReadBody(serviceName, response.Body, upstream.MaxResponseBytes)
	if err != nil {
		return pinning.Asset{}, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return pinning.Asset{}, upstream.FromStatus(serviceName, response.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var decoded uploadResponse
	if err := json.Unmarshal(responseBody, &decoded); err != nil {
		return pinning.Asset{}, upstream.NewError(upstream.ErrorBadData, serviceName, "failed to decode upload response", err)
	}
	id, err := pinning.ParseCID(decoded.Data.CID)
	if err != nil {
		return pinning.Asset{}, upstream.NewError(upstream.ErrorBadData, serviceName, "upload response carries no valid cid", err)
	}
	return pinning.Asset{CID: id.String(), URL: c.GatewayURL(id.String())}, nil
}

func multipartUpload(name, contentType string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("network", "public"); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("name", name); err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
