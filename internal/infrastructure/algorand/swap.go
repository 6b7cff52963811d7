package algorand

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain"
)

// swapParams todo lo necesario para componer el grupo de swap sin tocar la red.
type swapParams struct {
	appID         uint64
	nftID         uint64
	climatecoinID uint64
	amount        uint64
	owner         types.Address
	escrow        types.Address
	creator       types.Address
	creatorKey    ed25519.PrivateKey
	unfreeze      abi.Method
	swap          abi.Method
	sp            types.SuggestedParams
}

// PrepareSwap compone el grupo [opt-in Climatecoin, unfreeze_nft, NFT → escrow, swap_nft_to_fungible].
// La txn de unfreeze va firmada por el creator; el resto la firma la wallet del dueño.
func (c *Client) PrepareSwap(ctx context.Context, assetID uint64, owner string) (*carbon.SwapGroup, error) {
	ownerAddr, err := decodeAddress(owner)
	if err != nil {
		return nil, err
	}
	if c.climatecoinID == 0 {
		return nil, fmt.Errorf("algorand: CLIMATECOIN_ASA_ID no configurado")
	}
	total, err := c.assetTotal(ctx, assetID)
	if err != nil {
		return nil, err
	}
	sp, err := c.suggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	unfreeze, err := c.contract.GetMethodByName(MethodUnfreezeNFT)
	if err != nil {
		return nil, err
	}
	swap, err := c.contract.GetMethodByName(MethodSwapNFTToFungible)
	if err != nil {
		return nil, err
	}

	group, err := buildSwapGroup(swapParams{
		appID:         c.appID,
		nftID:         assetID,
		climatecoinID: c.climatecoinID,
		amount:        total,
		owner:         ownerAddr,
		escrow:        c.escrow,
		creator:       c.creator.Address,
		creatorKey:    c.creator.PrivateKey,
		unfreeze:      unfreeze,
		swap:          swap,
		sp:            sp,
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("group_id", group.GroupID).Uint64("asa_id", assetID).Str("owner", owner).Msg("grupo de swap preparado")
	return group, nil
}

func buildSwapGroup(p swapParams) (*carbon.SwapGroup, error) {
	owner, escrow := p.owner.String(), p.escrow.String()

	optIn, err := transaction.MakeAssetAcceptanceTxn(owner, nil, p.sp, p.climatecoinID)
	if err != nil {
		return nil, fmt.Errorf("algorand: opt-in: %w", err)
	}
	unfreeze, err := transaction.MakeApplicationNoOpTx(
		p.appID,
		[][]byte{p.unfreeze.GetSelector(), {0}, {1}},
		[]string{owner},
		nil,
		[]uint64{p.nftID},
		withInnerFees(p.sp, 1),
		p.creator, nil, types.Digest{}, [32]byte{}, types.Address{},
	)
	if err != nil {
		return nil, fmt.Errorf("algorand: unfreeze_nft: %w", err)
	}
	transfer, err := transaction.MakeAssetTransferTxn(owner, escrow, p.amount, nil, p.sp, "", p.nftID)
	if err != nil {
		return nil, fmt.Errorf("algorand: transferencia NFT: %w", err)
	}
	swap, err := transaction.MakeApplicationNoOpTx(
		p.appID,
		[][]byte{p.swap.GetSelector(), {0}, {1}},
		nil,
		nil,
		[]uint64{p.nftID, p.climatecoinID},
		withInnerFees(p.sp, 1),
		p.owner, nil, types.Digest{}, [32]byte{}, types.Address{},
	)
	if err != nil {
		return nil, fmt.Errorf("algorand: swap_nft_to_fungible: %w", err)
	}

	txns, err := transaction.AssignGroupID([]types.Transaction{optIn, unfreeze, transfer, swap}, "")
	if err != nil {
		return nil, fmt.Errorf("algorand: group id: %w", err)
	}

	out := &carbon.SwapGroup{GroupID: encodeGroupID(txns[0].Group)}
	for _, txn := range txns {
		gt := carbon.GroupTxn{TxnID: crypto.GetTxID(txn), Signer: txn.Sender.String()}
		if txn.Sender == p.creator {
			_, signed, err := crypto.SignTransaction(p.creatorKey, txn)
			if err != nil {
				return nil, fmt.Errorf("algorand: firmar %s: %w", gt.TxnID, err)
			}
			gt.Blob, gt.Signed = signed, true
		} else {
			gt.Blob = msgpack.Encode(txn)
		}
		out.Txns = append(out.Txns, gt)
	}
	return out, nil
}

// SubmitSignedGroup valida que todas las txns pertenezcan al grupo preparado y lo envía al nodo.
func (c *Client) SubmitSignedGroup(ctx context.Context, groupID string, signed [][]byte) (*carbon.ChainReceipt, error) {
	swap, err := c.contract.GetMethodByName(MethodSwapNFTToFungible)
	if err != nil {
		return nil, err
	}
	stxns, err := decodeSignedGroup(groupID, c.appID, swap.GetSelector(), signed)
	if err != nil {
		return nil, err
	}
	var raw []byte
	for _, b := range signed {
		raw = append(raw, b...)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := c.algod.SendRawTransaction(raw).Do(ctx); err != nil {
		return nil, fmt.Errorf("algorand: enviar grupo: %w", err)
	}
	lastID := crypto.GetTxID(stxns[len(stxns)-1].Txn)
	info, err := transaction.WaitForConfirmation(c.algod, lastID, c.waitRounds, ctx)
	if err != nil {
		return nil, fmt.Errorf("algorand: confirmar %s: %w", lastID, err)
	}
	c.log.Info().Str("txn_id", lastID).Str("group_id", groupID).Uint64("round", info.ConfirmedRound).Msg("swap confirmado")
	return &carbon.ChainReceipt{TxnID: lastID, ConfirmedRound: info.ConfirmedRound}, nil
}

// swapGroupSize opt-in, unfreeze_nft, transferencia al escrow y swap_nft_to_fungible.
const swapGroupSize = 4

// decodeSignedGroup decodifica cada blob como SignedTxn y exige el grupo preparado completo:
// swapGroupSize txns distintas con el mismo group id, la última una llamada a
// swap_nft_to_fungible sobre appID.
func decodeSignedGroup(groupID string, appID uint64, swapSelector []byte, signed [][]byte) ([]types.SignedTxn, error) {
	if len(signed) == 0 {
		return nil, fmt.Errorf("%w: grupo vacío", domain.ErrInvalidInput)
	}
	if len(signed) != swapGroupSize {
		return nil, fmt.Errorf("%w: se esperaban %d txns, llegaron %d", domain.ErrSwapGroupMismatch, swapGroupSize, len(signed))
	}
	seen := make(map[string]struct{}, len(signed))
	out := make([]types.SignedTxn, 0, len(signed))
	for i, b := range signed {
		var stxn types.SignedTxn
		if err := msgpack.Decode(b, &stxn); err != nil {
			return nil, fmt.Errorf("%w: txn %d no es una SignedTxn", domain.ErrInvalidInput, i)
		}
		if stxn.Sig == (types.Signature{}) && len(stxn.Msig.Subsigs) == 0 && len(stxn.Lsig.Logic) == 0 {
			return nil, fmt.Errorf("%w: txn %d sin firma", domain.ErrInvalidInput, i)
		}
		if got := base64.StdEncoding.EncodeToString(stxn.Txn.Group[:]); got != groupID {
			return nil, fmt.Errorf("%w: txn %d", domain.ErrSwapGroupMismatch, i)
		}
		id := crypto.GetTxID(stxn.Txn)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: txn %d repetida", domain.ErrSwapGroupMismatch, i)
		}
		seen[id] = struct{}{}
		out = append(out, stxn)
	}

	// el group id es el hash de las txids en orden: detecta reordenamientos y sustituciones
	txns := make([]types.Transaction, len(out))
	for i, stxn := range out {
		txns[i] = stxn.Txn
		txns[i].Group = types.Digest{}
	}
	gid, err := crypto.ComputeGroupID(txns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSwapGroupMismatch, err)
	}
	if encodeGroupID(gid) != groupID {
		return nil, fmt.Errorf("%w: orden o contenido del grupo alterado", domain.ErrSwapGroupMismatch)
	}

	last := out[len(out)-1].Txn
	if last.Type != types.ApplicationCallTx || uint64(last.ApplicationID) != appID ||
		len(last.ApplicationArgs) == 0 || !bytes.Equal(last.ApplicationArgs[0], swapSelector) {
		return nil, fmt.Errorf("%w: la última txn no es swap_nft_to_fungible", domain.ErrSwapGroupMismatch)
	}
	return out, nil
}
