// Package upload turns a user-selected file into a displayable image preview.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	"image/png"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration

	dErrors "academia/pkg/domain-errors"
)

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Preview is what the authenticate screen displays for an accepted file.
type Preview struct {
	DataURI     string `json:"data_uri"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	// Thumbnail is true when DataURI holds a scaled copy rather than the original bytes.
	Thumbnail bool `json:"thumbnail"`
}

// DefaultMaxPixels bounds the decoded size of an accepted image.
const DefaultMaxPixels int64 = 40_000_000

// Manager validates uploads and builds previews.
type Manager struct {
	maxBytes  int64
	maxEdge   int
	maxPixels int64
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxPixels caps width*height of images that get decoded. Non-positive
// values keep DefaultMaxPixels.
func WithMaxPixels(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxPixels = n
		}
	}
}

// NewManager creates a Manager. maxEdge bounds the longest side of a preview.
func NewManager(maxBytes int64, maxEdge int, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{maxBytes: maxBytes, maxEdge: maxEdge, maxPixels: DefaultMaxPixels, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DetectContentType returns the declared MIME type when it is meaningful and
// sniffs the bytes otherwise. Parameters such as charset are stripped.
func DetectContentType(f File) string {
	declared := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	sniffed := mimetype.Detect(f.Data).String()
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}

// IsImage reports whether contentType is in the image/ family.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// Accept validates f and produces its preview. Non-image files are rejected
// with CodeUnsupportedMedia and leave the caller's state untouched.
func (m *Manager) Accept(ctx context.Context, f File) (Preview, error) {
	if len(f.Data) == 0 {
		return Preview{}, dErrors.New(dErrors.CodeValidation, "file is empty")
	}
	if m.maxBytes > 0 && f.Size() > m.maxBytes {
		return Preview{}, dErrors.New(dErrors.CodeValidation, "file is too large")
	}

	contentType := DetectContentType(f)
	if !IsImage(contentType) {
		m.logger.InfoContext(ctx, "rejected non-image upload",
			"file_name", f.Name,
			"content_type", contentType,
		)
		return Preview{}, dErrors.New(dErrors.CodeUnsupportedMedia, "only image files can be authenticated")
	}

	preview := Preview{ContentType: contentType}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		// Image types without a registered decoder (svg, heic) are embedded as is.
		m.logger.DebugContext(ctx, "preview without decoding", "content_type", contentType, "error", err)
		preview.DataURI = DataURI(contentType, f.Data)
		return preview, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > m.maxPixels {
		m.logger.InfoContext(ctx, "rejected oversized image",
			"file_name", f.Name,
			"width", cfg.Width,
			"height", cfg.Height,
		)
		return Preview{}, dErrors.New(dErrors.CodeValidation, "image dimensions are too large")
	}
	preview.Width, preview.Height = cfg.Width, cfg.Height

	if m.maxEdge <= 0 || (cfg.Width <= m.maxEdge && cfg.Height <= m.maxEdge) {
		preview.DataURI = DataURI(contentType, f.Data)
		return preview, nil
	}

	thumb, err := Thumbnail(f.Data, m.maxEdge)
	if err != nil {
		m.logger.WarnContext(ctx, "thumbnail failed, embedding original", "error", err)
		preview.DataURI = DataURI(contentType, f.Data)
		return preview, nil
	}
	preview.DataURI = DataURI("image/png", thumb)
	preview.Thumbnail = true
	return preview, nil
}

// Thumbnail decodes data and returns a PNG whose longest side is maxEdge.
// Callers bound the image dimensions first; decoding allocates the full frame.
func Thumbnail(data []byte, maxEdge int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h := scaledSize(src.Bounds().Dx(), src.Bounds().Dy(), maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scaledSize(w, h, maxEdge int) (int, int) {
	if w <= maxEdge && h <= maxEdge {
		return w, h
	}
	if w >= h {
		nh := h * maxEdge / w
		if nh < 1 {
			nh = 1
		}
		return maxEdge, nh
	}
	nw := w * maxEdge / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxEdge
}

// DataURI embeds data as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
