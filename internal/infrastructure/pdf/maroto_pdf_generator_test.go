package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

func TestGenerateCertificate(t *testing.T) {
	g := NewMarotoPDFGenerator()
	g.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	doc := &entity.CarbonDocument{
		ID:           "doc-1",
		Title:        "Manglares del Pacífico",
		SerialNumber: "GS-77",
		RegistryName: "Gold Standard",
		Credits:      decimal.NewFromInt(25000),
		Sdgs:         []string{"13", "15"},
		Status:       entity.DocumentStatusMinted,
	}
	nfts := []*entity.Nft{
		{TxnType: entity.NftTxnAssetCreation, AsaID: 2002, OwnerAddress: "DEVADDRESS", AsaTxnID: "MINTTXN"},
		{TxnType: entity.NftTxnFeeAssetCreation, AsaID: 2001, OwnerAddress: "CREATOR", AsaTxnID: "MINTTXN"},
	}

	out, err := g.GenerateCertificate(context.Background(), doc, nfts, "https://explorer/")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestDeveloperAssetURL(t *testing.T) {
	nfts := []*entity.Nft{
		{TxnType: entity.NftTxnFeeAssetCreation, AsaID: 1},
		{TxnType: entity.NftTxnAssetCreation, AsaID: 2},
	}
	assert.Equal(t, "https://explorer/asset/2", developerAssetURL("https://explorer/", nfts))
	assert.Equal(t, "", developerAssetURL("", nfts))
	assert.Equal(t, "", developerAssetURL("https://explorer", nil))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "25.000", formatCredits("25000"))
	assert.Equal(t, "1.000.000", formatCredits("1000000"))
	assert.Equal(t, "250", formatCredits("250"))
	assert.Equal(t, "ABCD...WXYZ", abbreviate("ABCDEFGHIJKLMNOPQRSTUVWXYZ", 4))
	assert.Equal(t, "corto", abbreviate("corto", 4))
	assert.Equal(t, []string{"ab", "cd", "e"}, splitEvery("abcde", 2))
	assert.Equal(t, "Fee", nftLabel(entity.NftTxnFeeAssetCreation))
}
