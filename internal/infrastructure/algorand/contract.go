package algorand

import (
	_ "embed"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	json "github.com/goccy/go-json"
)

// Métodos ABI de la aplicación Climatecoin.
const (
	MethodCreateNFT         = "create_nft"
	MethodMove              = "move"
	MethodUnfreezeNFT       = "unfreeze_nft"
	MethodSwapNFTToFungible = "swap_nft_to_fungible"
)

//go:embed contract.json
var contractJSON []byte

// LoadContract decodifica la interfaz ABI embebida.
func LoadContract() (*abi.Contract, error) {
	var c abi.Contract
	if err := json.Unmarshal(contractJSON, &c); err != nil {
		return nil, fmt.Errorf("contrato ABI: %w", err)
	}
	for _, name := range []string{MethodCreateNFT, MethodMove, MethodUnfreezeNFT, MethodSwapNFTToFungible} {
		if _, err := c.GetMethodByName(name); err != nil {
			return nil, fmt.Errorf("contrato ABI: %w", err)
		}
	}
	return &c, nil
}
