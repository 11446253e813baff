// Package wallet holds the signing account used to mint. The connection is
// built once at process start; a missing account or key is the
// "not connected" state rather than an error.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"academia/internal/platform/config"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

var ErrInvalidAddress = errors.New("invalid account address")

// Status is the wallet state shown in the page shell.
type Status struct {
	Connected bool   `json:"connected"`
	CanSign   bool   `json:"can_sign"`
	Network   string `json:"network"`
	AccountID string `json:"account_id,omitempty"`
}

// Connection is an operator account bound to a ledger client.
type Connection struct {
	network   string
	accountID hedera.AccountID
	key       *hedera.PrivateKey
	client    *hedera.Client
}

// Connect builds the connection described by cfg. An empty account ID yields
// a disconnected Connection; an account without a key is connected but
// cannot sign.
func Connect(cfg config.Wallet) (*Connection, error) {
	network, err := NormalizeNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	conn := &Connection{network: network}

	if strings.TrimSpace(cfg.AccountID) == "" {
		return conn, nil
	}
	accountID, err := hedera.AccountIDFromString(strings.TrimSpace(cfg.AccountID))
	if err != nil {
		return nil, fmt.Errorf("invalid operator account ID: %w", err)
	}
	conn.accountID = accountID

	client, err := NewHederaClient(network)
	if err != nil {
		return nil, err
	}
	conn.client = client

	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return conn, nil
	}
	key, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	conn.key = &key
	client.SetOperator(accountID, key)
	return conn, nil
}

// Connected reports whether an account is configured.
func (c *Connection) Connected() bool {
	return c != nil && c.client != nil
}

// CanSign reports whether the connection holds a signing key.
func (c *Connection) CanSign() bool {
	return c.Connected() && c.key != nil
}

// Network returns the normalized network name.
func (c *Connection) Network() string {
	if c == nil {
		return ""
	}
	return c.network
}

// AccountID returns the operator account.
func (c *Connection) AccountID() hedera.AccountID {
	if c == nil {
		return hedera.AccountID{}
	}
	return c.accountID
}

// Client returns the ledger client, or nil when disconnected.
func (c *Connection) Client() *hedera.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// PrivateKey returns the signing key. ok is false when the wallet cannot sign.
func (c *Connection) PrivateKey() (key hedera.PrivateKey, ok bool) {
	if !c.CanSign() {
		return hedera.PrivateKey{}, false
	}
	return *c.key, true
}

// Status summarizes the connection.
func (c *Connection) Status() Status {
	s := Status{Connected: c.Connected(), CanSign: c.CanSign(), Network: c.Network()}
	if s.Connected {
		s.AccountID = c.accountID.String()
	}
	return s
}

// ValidateAddress checks that address is a well-formed account ID.
func (c *Connection) ValidateAddress(address string) error {
	_, err := ParseAccountID(address)
	return err
}

// Close releases the ledger client.
func (c *Connection) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ParseAccountID parses "shard.realm.num" with an optional checksum.
func ParseAccountID(address string) (hedera.AccountID, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return hedera.AccountID{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	id, err := hedera.AccountIDFromString(trimmed)
	if err != nil {
		return hedera.AccountID{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return id, nil
}

// NormalizeNetwork lower-cases network and defaults it to testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}
	switch normalized {
	case NetworkMainnet, NetworkTestnet:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// NewHederaClient returns a client for the named network.
func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}
	if normalized == NetworkMainnet {
		return hedera.ClientForMainnet(), nil
	}
	return hedera.ClientForTestnet(), nil
}

// ParsePrivateKey accepts ED25519, ECDSA or DER encoded keys.
func ParsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	ed25519Key, edErr := hedera.PrivateKeyFromStringEd25519(candidate)
	if edErr == nil {
		return ed25519Key, nil
	}

	ecdsaKey, ecdsaErr := hedera.PrivateKeyFromStringECDSA(candidate)
	if ecdsaErr == nil {
		return ecdsaKey, nil
	}

	genericKey, genericErr := hedera.PrivateKeyFromString(candidate)
	if genericErr == nil {
		return genericKey, nil
	}

	return hedera.PrivateKey{}, fmt.Errorf(
		"failed to parse private key as ED25519 (%v), ECDSA (%v), or generic (%v)",
		edErr,
		ecdsaErr,
		genericErr,
	)
}
