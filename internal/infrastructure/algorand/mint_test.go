package algorand

import (
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func innerTxn(kind types.TxType, asset uint64) models.PendingTransactionResponse {
	var r models.PendingTransactionResponse
	r.Transaction.Txn.Type = kind
	r.AssetIndex = asset
	return r
}

func TestCreatedAssets(t *testing.T) {
	info := models.PendingTransactionInfoResponse{
		InnerTxns: []models.PendingTransactionResponse{
			innerTxn(types.PaymentTx, 0),
			innerTxn(types.AssetConfigTx, 2001),
			innerTxn(types.AssetConfigTx, 2002),
		},
	}
	fee, dev, err := createdAssets(info)
	require.NoError(t, err)
	assert.Equal(t, uint64(2001), fee)
	assert.Equal(t, uint64(2002), dev)
}

func TestCreatedAssets_Incompleto(t *testing.T) {
	info := models.PendingTransactionInfoResponse{
		InnerTxns: []models.PendingTransactionResponse{innerTxn(types.AssetConfigTx, 2001)},
	}
	_, _, err := createdAssets(info)
	assert.Error(t, err)
}
