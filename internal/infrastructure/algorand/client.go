// Package algorand implementa carbon.ChainGateway sobre algod/indexer con el SDK oficial.
package algorand

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"golang.org/x/time/rate"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/pkg/config"
	"github.com/climatecoin/carbon-api/pkg/logger"
)

var _ carbon.ChainGateway = (*Client)(nil)

// Client gateway hacia la aplicación Climatecoin. La cuenta creator firma
// las llamadas administrativas (create_nft, move, unfreeze_nft).
type Client struct {
	algod         *algod.Client
	indexer       *indexer.Client
	creator       crypto.Account
	contract      *abi.Contract
	appID         uint64
	climatecoinID uint64
	escrow        types.Address
	waitRounds    uint64
	limiter       *rate.Limiter
	log           *logger.Logger
}

// NewClient crea los clientes algod/indexer y deriva la cuenta creator de ALGO_MNEMONIC.
func NewClient(cfg config.AlgorandConfig, log *logger.Logger) (*Client, error) {
	if cfg.AppID == 0 {
		return nil, errors.New("algorand: APP_ID no configurado")
	}
	if cfg.Mnemonic == "" {
		return nil, errors.New("algorand: ALGO_MNEMONIC no configurado")
	}
	sk, err := mnemonic.ToPrivateKey(cfg.Mnemonic)
	if err != nil {
		return nil, fmt.Errorf("algorand: mnemonic inválido: %w", err)
	}
	creator, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("algorand: cuenta creator: %w", err)
	}
	algodClient, err := algod.MakeClient(cfg.AlgodAddress, cfg.AlgodToken)
	if err != nil {
		return nil, fmt.Errorf("algorand: algod: %w", err)
	}
	indexerClient, err := indexer.MakeClient(cfg.IndexerAddress, cfg.IndexerToken)
	if err != nil {
		return nil, fmt.Errorf("algorand: indexer: %w", err)
	}
	contract, err := LoadContract()
	if err != nil {
		return nil, err
	}

	waitRounds := cfg.WaitRounds
	if waitRounds == 0 {
		waitRounds = 2
	}
	c := &Client{
		algod:         algodClient,
		indexer:       indexerClient,
		creator:       creator,
		contract:      contract,
		appID:         cfg.AppID,
		climatecoinID: cfg.ClimatecoinASAID,
		escrow:        crypto.GetApplicationAddress(cfg.AppID),
		waitRounds:    waitRounds,
		limiter:       newLimiter(cfg.RequestsPerSec),
		log:           log.Named("algorand"),
	}
	c.log.Info().
		Uint64("app_id", c.appID).
		Str("creator", creator.Address.String()).
		Str("escrow", c.escrow.String()).
		Msg("cliente Algorand listo")
	return c, nil
}

// EscrowAddress dirección de la aplicación.
func (c *Client) EscrowAddress() string { return c.escrow.String() }

// CreatorAddress cuenta que firma las llamadas administrativas.
func (c *Client) CreatorAddress() string { return c.creator.Address.String() }

// Health consulta el estado del nodo algod.
func (c *Client) Health(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.algod.HealthCheck().Do(ctx)
}

// newLimiter limita las peticiones al nodo; rps <= 0 desactiva el límite.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("algorand: rate limit: %w", err)
	}
	return nil
}

func (c *Client) suggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	if err := c.wait(ctx); err != nil {
		return types.SuggestedParams{}, err
	}
	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("algorand: suggested params: %w", err)
	}
	return sp, nil
}

// assetTotal lee el supply total de un ASA desde el indexer.
func (c *Client) assetTotal(ctx context.Context, assetID uint64) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	res, err := c.indexer.SearchForAssets().AssetID(assetID).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("algorand: buscar asset %d: %w", assetID, err)
	}
	if len(res.Assets) == 0 {
		return 0, fmt.Errorf("%w: asset %d no indexado", domain.ErrNotFound, assetID)
	}
	return res.Assets[0].Params.Total, nil
}

// withInnerFees cubre la fee de la txn externa más inner txns emitidas por la app.
func withInnerFees(sp types.SuggestedParams, inner int) types.SuggestedParams {
	minFee := sp.MinFee
	if minFee == 0 {
		minFee = 1000
	}
	sp.FlatFee = true
	sp.Fee = types.MicroAlgos(minFee * uint64(inner+1))
	return sp
}

func encodeGroupID(g types.Digest) string {
	if g == (types.Digest{}) {
		return ""
	}
	return base64.StdEncoding.EncodeToString(g[:])
}

func decodeAddress(addr string) (types.Address, error) {
	a, err := types.DecodeAddress(addr)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, addr)
	}
	return a, nil
}
