package carbon

import (
	"encoding/base64"

	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

func toDocumentResponse(d *entity.CarbonDocument) *dto.CarbonDocumentResponse {
	if d == nil {
		return nil
	}
	sdgs := d.Sdgs
	if sdgs == nil {
		sdgs = []string{}
	}
	return &dto.CarbonDocumentResponse{
		ID:             d.ID,
		Title:          d.Title,
		Description:    d.Description,
		SerialNumber:   d.SerialNumber,
		RegistryName:   d.RegistryName,
		ProjectType:    d.ProjectType,
		Country:        d.Country,
		VintageYear:    d.VintageYear,
		Credits:        d.Credits,
		Sdgs:           sdgs,
		DocumentFileID: d.DocumentFileID,
		Status:         d.Status,
		CreatedByUser:  d.CreatedByUser,
		DeveloperNftID: d.DeveloperNftID,
		FeeNftID:       d.FeeNftID,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// ToNftResponse mapea un Nft a su DTO.
func ToNftResponse(n *entity.Nft) *dto.NftResponse {
	if n == nil {
		return nil
	}
	return &dto.NftResponse{
		ID:               n.ID,
		TxnType:          n.TxnType,
		AsaID:            n.AsaID,
		AsaTxnID:         n.AsaTxnID,
		GroupID:          n.GroupID,
		Metadata:         n.Metadata,
		OwnerAddress:     n.OwnerAddress,
		CarbonDocumentID: n.CarbonDocumentID,
		LastConfigTxn:    n.LastConfigTxn,
		CreatedAt:        n.CreatedAt,
	}
}

// ToActivityResponse mapea una Activity a su DTO.
func ToActivityResponse(a *entity.Activity) *dto.ActivityResponse {
	if a == nil {
		return nil
	}
	return &dto.ActivityResponse{
		ID:               a.ID,
		UserID:           a.UserID,
		CarbonDocumentID: a.CarbonDocumentID,
		Type:             a.Type,
		TxnID:            a.TxnID,
		Supply:           a.Supply,
		CreatedAt:        a.CreatedAt,
	}
}

func toPrepareSwapResponse(docID string, g *SwapGroup) *dto.PrepareSwapResponse {
	txns := make([]dto.EncodedTxn, 0, len(g.Txns))
	for _, t := range g.Txns {
		txns = append(txns, dto.EncodedTxn{
			TxnID:  t.TxnID,
			Blob:   base64.StdEncoding.EncodeToString(t.Blob),
			Signed: t.Signed,
			Signer: t.Signer,
		})
	}
	return &dto.PrepareSwapResponse{DocumentID: docID, GroupID: g.GroupID, Txns: txns}
}
