package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and outbound clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: session has been idle past its TTL
// - ErrSuperseded: a newer attempt replaced the one the caller holds
// - ErrUnavailable: an outbound service or resource is not reachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrSuperseded  = errors.New("superseded")
	ErrUnavailable = errors.New("unavailable")
)
