// Package memory is an in-process pinning backend for local development.
// Content is addressed by CIDv1 (raw, sha2-256) and served back under
// /ipfs/{cid} so gateway URLs resolve against this server.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/ipfs/go-cid"

	"academia/internal/pinning"
	"academia/internal/upload"
)

type object struct {
	data        []byte
	contentType string
}

// Store keeps pinned content in memory.
type Store struct {
	mu      sync.RWMutex
	objects map[cid.Cid]object
	baseURL string
}

var _ pinning.Pinner = (*Store)(nil)

// New creates a Store whose gateway URLs are rooted at baseURL
// (for example "http://localhost:8080").
func New(baseURL string) *Store {
	return &Store{
		objects: make(map[cid.Cid]object),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put stores data and returns its CID. Storing the same bytes twice is a no-op.
func (s *Store) Put(data []byte, contentType string) (cid.Cid, error) {
	id, err := pinning.CIDv1RawSHA256(data)
	if err != nil {
		return cid.Undef, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.objects[id]; ok {
		if !bytes.Equal(existing.data, data) {
			return cid.Undef, pinning.ErrCIDMismatch
		}
		return id, nil
	}
	s.objects[id] = object{data: bytes.Clone(data), contentType: contentType}
	return id, nil
}

// Get returns the bytes and content type stored under id.
func (s *Store) Get(id cid.Cid) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", id, pinning.ErrNotFound)
	}
	return bytes.Clone(obj.data), obj.contentType, nil
}

// Has reports whether id is stored.
func (s *Store) Has(id cid.Cid) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[id]
	return ok
}

func (s *Store) PinFile(ctx context.Context, file upload.File) (pinning.Asset, error) {
	if err := ctx.Err(); err != nil {
		return pinning.Asset{}, err
	}
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	id, err := s.Put(file.Data, ct)
	if err != nil {
		return pinning.Asset{}, err
	}
	return pinning.Asset{CID: id.String(), URL: s.GatewayURL(id.String())}, nil
}

func (s *Store) PinJSON(ctx context.Context, _ string, doc any) (pinning.Asset, error) {
	if err := ctx.Err(); err != nil {
		return pinning.Asset{}, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return pinning.Asset{}, fmt.Errorf("encode json: %w", err)
	}
	id, err := s.Put(data, "application/json")
	if err != nil {
		return pinning.Asset{}, err
	}
	return pinning.Asset{CID: id.String(), URL: s.GatewayURL(id.String())}, nil
}

func (s *Store) GatewayURL(c string) string {
	return s.baseURL + "/ipfs/" + c
}

// Register mounts the local gateway.
func (s *Store) Register(r chi.Router) {
	r.Get("/ipfs/{cid}", s.handleGet)
}

func (s *Store) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pinning.ParseCID(chi.URLParam(r, "cid"))
	if err != nil {
		http.Error(w, "invalid cid", http.StatusBadRequest)
		return
	}
	data, ct, err := s.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("X-Content-Type-Options", "nosniff")
	// Pinned bytes are user supplied and share this server's origin.
	h.Set("Content-Security-Policy", "sandbox")
	if !servedInline(ct) {
		h.Set("Content-Disposition", `attachment; filename="`+id.String()+`"`)
	}
	h.Set("Cache-Control", "public, max-age=31536000, immutable")
	h.Set("ETag", `"`+id.String()+`"`)
	_, _ = w.Write(data)
}

func servedInline(contentType string) bool {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/json"
}
