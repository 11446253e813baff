package audit

import "time"

// Action names a recorded event.
type Action string

const (
	ActionDocumentVerified Action = "document_verified"
	ActionAttemptDiscarded Action = "attempt_discarded"
	ActionAssetMinted      Action = "asset_minted"
	ActionMintFailed       Action = "mint_failed"
)

// Event captures one outcome worth keeping after the request is gone.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Subject is the file name for verifications and the recipient for mints.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
