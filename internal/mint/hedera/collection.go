package hedera

import (
	"context"
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"academia/internal/wallet"
)

// CollectionSpec describes the NFT collection to create.
type CollectionSpec struct {
	Name               string
	Symbol             string
	Memo               string
	RoyaltyBasisPoints int
}

// royalty fractions are expressed over this denominator
const basisPointsDenominator = 10000

// BuildCollectionTx builds the token create transaction with the wallet as
// treasury, admin and supply key.
func BuildCollectionTx(spec CollectionSpec, treasury hedera.AccountID, key hedera.PublicKey) (*hedera.TokenCreateTransaction, error) {
	if strings.TrimSpace(spec.Name) == "" || strings.TrimSpace(spec.Symbol) == "" {
		return nil, fmt.Errorf("collection name and symbol are required")
	}
	if spec.RoyaltyBasisPoints < 0 || spec.RoyaltyBasisPoints > basisPointsDenominator {
		return nil, fmt.Errorf("royalty basis points must be within 0..%d", basisPointsDenominator)
	}

	tx := hedera.NewTokenCreateTransaction().
		SetTokenName(spec.Name).
		SetTokenSymbol(spec.Symbol).
		SetTokenType(hedera.TokenTypeNonFungibleUnique).
		SetSupplyType(hedera.TokenSupplyTypeInfinite).
		SetInitialSupply(0).
		SetDecimals(0).
		SetTreasuryAccountID(treasury).
		SetAutoRenewAccount(treasury).
		SetAdminKey(key).
		SetSupplyKey(key)

	if spec.Memo != "" {
		tx.SetTokenMemo(spec.Memo)
	}
	if spec.RoyaltyBasisPoints > 0 {
		royalty := hedera.NewCustomRoyaltyFee().
			SetNumerator(int64(spec.RoyaltyBasisPoints)).
			SetDenominator(basisPointsDenominator).
			SetFeeCollectorAccountID(treasury)
		tx.SetCustomFees([]hedera.Fee{royalty})
		// royalty fees need a fee schedule key to be updated later
		tx.SetFeeScheduleKey(key)
	}
	return tx, nil
}

// CreateCollection creates the NFT collection and returns its token ID.
func CreateCollection(ctx context.Context, conn *wallet.Connection, spec CollectionSpec) (hedera.TokenID, error) {
	key, ok := conn.PrivateKey()
	if !ok {
		return hedera.TokenID{}, fmt.Errorf("wallet cannot sign")
	}
	tx, err := BuildCollectionTx(spec, conn.AccountID(), key.PublicKey())
	if err != nil {
		return hedera.TokenID{}, err
	}
	if err := ctx.Err(); err != nil {
		return hedera.TokenID{}, err
	}

	client := conn.Client()
	response, err := tx.Execute(client)
	if err != nil {
		return hedera.TokenID{}, fmt.Errorf("failed to execute token create transaction: %w", err)
	}
	receipt, err := response.GetReceipt(client)
	if err != nil {
		return hedera.TokenID{}, fmt.Errorf("failed to get token create receipt: %w", err)
	}
	if receipt.TokenID == nil {
		return hedera.TokenID{}, fmt.Errorf("token create receipt did not include token ID")
	}
	return *receipt.TokenID, nil
}
