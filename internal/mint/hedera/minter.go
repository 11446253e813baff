// Package hedera mints assets as NFT serials on the Hedera Token Service.
package hedera

import (
	"context"
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"academia/internal/mint"
	"academia/internal/wallet"
)

// Hedera limits NFT metadata to 100 bytes.
const maxMetadataBytes = 100

// Config configures the Minter.
type Config struct {
	TokenID string
	// SupplyKey signs mints when it differs from the wallet key.
	SupplyKey   string
	ExplorerURL string
}

// Minter mints one serial of a collection per asset and transfers it from the
// treasury to the recipient.
type Minter struct {
	conn        *wallet.Connection
	tokenID     hedera.TokenID
	supplyKey   *hedera.PrivateKey
	explorerURL string
}

var _ mint.Minter = (*Minter)(nil)

// NewMinter validates cfg against the wallet connection.
func NewMinter(conn *wallet.Connection, cfg Config) (*Minter, error) {
	trimmed := strings.TrimSpace(cfg.TokenID)
	if trimmed == "" {
		return nil, fmt.Errorf("token ID is required")
	}
	tokenID, err := hedera.TokenIDFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid token ID: %w", err)
	}
	m := &Minter{
		conn:        conn,
		tokenID:     tokenID,
		explorerURL: strings.TrimRight(cfg.ExplorerURL, "/"),
	}
	if strings.TrimSpace(cfg.SupplyKey) != "" {
		key, err := wallet.ParsePrivateKey(cfg.SupplyKey)
		if err != nil {
			return nil, fmt.Errorf("invalid supply key: %w", err)
		}
		m.supplyKey = &key
	}
	return m, nil
}

// CreateAsset mints a serial carrying req.URI and sends it to req.Recipient.
// Name, symbol and royalty belong to the collection on Hedera and are fixed
// when it is created.
func (m *Minter) CreateAsset(ctx context.Context, req mint.AssetRequest) (mint.Asset, error) {
	if !m.conn.CanSign() {
		return mint.Asset{}, fmt.Errorf("wallet cannot sign")
	}
	recipient, err := wallet.ParseAccountID(req.Recipient)
	if err != nil {
		return mint.Asset{}, err
	}
	client := m.conn.Client()

	mintTx, err := BuildMintTx(m.tokenID, req.URI, memo(req))
	if err != nil {
		return mint.Asset{}, err
	}
	if err := ctx.Err(); err != nil {
		return mint.Asset{}, err
	}
	frozen, err := mintTx.FreezeWith(client)
	if err != nil {
		return mint.Asset{}, fmt.Errorf("failed to freeze mint transaction: %w", err)
	}
	if m.supplyKey != nil {
		frozen = frozen.Sign(*m.supplyKey)
	}
	response, err := frozen.Execute(client)
	if err != nil {
		return mint.Asset{}, fmt.Errorf("failed to execute mint transaction: %w", err)
	}
	receipt, err := response.GetReceipt(client)
	if err != nil {
		return mint.Asset{}, fmt.Errorf("failed to retrieve mint receipt: %w", err)
	}
	if receipt.Status != hedera.StatusSuccess {
		return mint.Asset{}, fmt.Errorf("mint transaction failed with status %s", receipt.Status.String())
	}
	if len(receipt.SerialNumbers) == 0 {
		return mint.Asset{}, fmt.Errorf("mint receipt did not include a serial number")
	}
	nftID := hedera.NftID{TokenID: m.tokenID, SerialNumber: receipt.SerialNumbers[0]}

	asset := mint.Asset{
		Address:       nftID.String(),
		TransactionID: response.TransactionID.String(),
		ExplorerURL:   ExplorerURL(m.explorerURL, m.conn.Network(), nftID),
	}

	treasury := m.conn.AccountID()
	if recipient.String() == treasury.String() {
		return asset, nil
	}
	if err := ctx.Err(); err != nil {
		return mint.Asset{}, err
	}

	transfer, err := BuildTransferTx(nftID, treasury, recipient).FreezeWith(client)
	if err != nil {
		return mint.Asset{}, fmt.Errorf("failed to freeze transfer transaction: %w", err)
	}
	transferResponse, err := transfer.Execute(client)
	if err != nil {
		return mint.Asset{}, fmt.Errorf("failed to execute transfer of %s: %w", nftID, err)
	}
	transferReceipt, err := transferResponse.GetReceipt(client)
	if err != nil {
		return mint.Asset{}, fmt.Errorf("failed to retrieve transfer receipt for %s: %w", nftID, err)
	}
	if transferReceipt.Status != hedera.StatusSuccess {
		return mint.Asset{}, fmt.Errorf("transfer of %s failed with status %s", nftID, transferReceipt.Status.String())
	}
	asset.TransactionID = transferResponse.TransactionID.String()
	return asset, nil
}

// BuildMintTx builds the mint of one serial with uri as its metadata.
func BuildMintTx(tokenID hedera.TokenID, uri, transactionMemo string) (*hedera.TokenMintTransaction, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("metadata URI is required")
	}
	if len(uri) > maxMetadataBytes {
		return nil, fmt.Errorf("metadata URI is %d bytes, limit is %d", len(uri), maxMetadataBytes)
	}
	tx := hedera.NewTokenMintTransaction().
		SetTokenID(tokenID).
		SetMetadata([]byte(uri))
	if strings.TrimSpace(transactionMemo) != "" {
		tx.SetTransactionMemo(transactionMemo)
	}
	return tx, nil
}

// BuildTransferTx moves a serial from the treasury to the recipient.
func BuildTransferTx(nftID hedera.NftID, from, to hedera.AccountID) *hedera.TransferTransaction {
	return hedera.NewTransferTransaction().AddNftTransfer(nftID, from, to)
}

// ExplorerURL links to the serial on HashScan-style explorers.
func ExplorerURL(base, network string, nftID hedera.NftID) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/token/%s/%d", base, network, nftID.TokenID.String(), nftID.SerialNumber)
}

func memo(req mint.AssetRequest) string {
	switch {
	case req.Name != "" && req.Symbol != "":
		return req.Name + " (" + req.Symbol + ")"
	default:
		return req.Name
	}
}
