package algorand

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/transaction"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
)

// ClaimNFT mueve el supply completo del NFT desde el escrow hacia receiver vía move().
func (c *Client) ClaimNFT(ctx context.Context, assetID uint64, receiver string) (*carbon.ChainReceipt, error) {
	to, err := decodeAddress(receiver)
	if err != nil {
		return nil, err
	}
	total, err := c.assetTotal(ctx, assetID)
	if err != nil {
		return nil, err
	}
	sp, err := c.suggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	method, err := c.contract.GetMethodByName(MethodMove)
	if err != nil {
		return nil, err
	}

	var atc transaction.AtomicTransactionComposer
	err = atc.AddMethodCall(transaction.AddMethodCallParams{
		AppID:           c.appID,
		Method:          method,
		MethodArgs:      []interface{}{assetID, c.escrow, to, total},
		Sender:          c.creator.Address,
		SuggestedParams: withInnerFees(sp, 1),
		Signer:          transaction.BasicAccountTransactionSigner{Account: c.creator},
	})
	if err != nil {
		return nil, fmt.Errorf("algorand: componer move: %w", err)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	result, err := atc.Execute(c.algod, ctx, c.waitRounds)
	if err != nil {
		return nil, fmt.Errorf("algorand: ejecutar move: %w", err)
	}
	if len(result.TxIDs) == 0 {
		return nil, fmt.Errorf("algorand: move sin txid")
	}

	c.log.Info().
		Str("txn_id", result.TxIDs[0]).
		Uint64("asa_id", assetID).
		Uint64("amount", total).
		Str("receiver", receiver).
		Msg("NFT reclamado")
	return &carbon.ChainReceipt{TxnID: result.TxIDs[0], ConfirmedRound: result.ConfirmedRound}, nil
}
