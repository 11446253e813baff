// Package pinning uploads files and JSON documents to a content-addressed
// pinning service.
package pinning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"academia/internal/upload"
)

var (
	ErrNotFound    = errors.New("pinning: not found")
	ErrInvalidCID  = errors.New("pinning: invalid cid")
	ErrCIDMismatch = errors.New("pinning: cid mismatch")
)

// Asset is a pinned object: its content identifier and a URL that resolves it.
type Asset struct {
	CID string `json:"cid"`
	URL string `json:"url"`
}

// Pinner stores content with a pinning service.
type Pinner interface {
	PinFile(ctx context.Context, file upload.File) (Asset, error)
	PinJSON(ctx context.Context, name string, doc any) (Asset, error)
	GatewayURL(cid string) string
}

// ParseCID validates a content identifier returned by a pinning service.
func ParseCID(s string) (cid.Cid, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return cid.Undef, ErrInvalidCID
	}
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %v", ErrInvalidCID, err)
	}
	return c, nil
}

// CIDv1RawSHA256 returns the CIDv1 (raw codec, sha2-256) of data.
func CIDv1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// URI returns the ipfs:// form of a CID.
func URI(c string) string {
	return "ipfs://" + c
}
