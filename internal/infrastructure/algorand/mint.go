package algorand

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
)

// createNFTInnerTxns create_nft emite dos acfg: NFT de fee y NFT del desarrollador.
const createNFTInnerTxns = 2

// MintCarbonNFT llama create_nft(credits) con la nota ARC-69 y lee los ASA creados.
func (c *Client) MintCarbonNFT(ctx context.Context, in carbon.MintRequest) (*carbon.MintReceipt, error) {
	sp, err := c.suggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	method, err := c.contract.GetMethodByName(MethodCreateNFT)
	if err != nil {
		return nil, err
	}

	var atc transaction.AtomicTransactionComposer
	err = atc.AddMethodCall(transaction.AddMethodCallParams{
		AppID:           c.appID,
		Method:          method,
		MethodArgs:      []interface{}{in.Credits},
		Sender:          c.creator.Address,
		SuggestedParams: withInnerFees(sp, createNFTInnerTxns),
		Note:            in.Note,
		Signer:          transaction.BasicAccountTransactionSigner{Account: c.creator},
	})
	if err != nil {
		return nil, fmt.Errorf("algorand: componer create_nft: %w", err)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	result, err := atc.Execute(c.algod, ctx, c.waitRounds)
	if err != nil {
		return nil, fmt.Errorf("algorand: ejecutar create_nft: %w", err)
	}
	if len(result.TxIDs) == 0 {
		return nil, fmt.Errorf("algorand: create_nft sin txid")
	}
	txID := result.TxIDs[0]

	// algod ya tiene la txn confirmada; el indexer puede ir rounds atrás.
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	info, _, err := c.algod.PendingTransactionInformation(txID).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("algorand: info de %s: %w", txID, err)
	}
	feeAsa, devAsa, err := createdAssets(info)
	if err != nil {
		return nil, fmt.Errorf("algorand: %s: %w", txID, err)
	}

	c.log.Info().
		Str("txn_id", txID).
		Uint64("developer_asa", devAsa).
		Uint64("fee_asa", feeAsa).
		Uint64("round", result.ConfirmedRound).
		Msg("NFTs de carbono acuñados")

	return &carbon.MintReceipt{
		TxnID:          txID,
		GroupID:        encodeGroupID(info.Transaction.Txn.Group),
		DeveloperAsaID: devAsa,
		FeeAsaID:       feeAsa,
		CreatorAddress: c.creator.Address.String(),
		ConfirmedRound: result.ConfirmedRound,
	}, nil
}

// createdAssets extrae los ASA de las inner acfg en orden: fee primero, desarrollador después.
func createdAssets(info models.PendingTransactionInfoResponse) (fee, developer uint64, err error) {
	var ids []uint64
	for _, inner := range info.InnerTxns {
		if inner.Transaction.Txn.Type != types.AssetConfigTx {
			continue
		}
		ids = append(ids, inner.AssetIndex)
	}
	if len(ids) < createNFTInnerTxns {
		return 0, 0, fmt.Errorf("se esperaban %d acfg internas, hay %d", createNFTInnerTxns, len(ids))
	}
	return ids[0], ids[1], nil
}
