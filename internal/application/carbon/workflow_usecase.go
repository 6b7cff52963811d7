package carbon

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/arc69"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
	"github.com/climatecoin/carbon-api/pkg/logger"
)

// WorkflowDeps dependencias del flujo on-chain.
type WorkflowDeps struct {
	DocRepo     repository.CarbonDocumentRepository
	NftRepo     repository.NftRepository
	UserRepo    repository.UserRepository
	TxRunner    WorkflowTxRunner
	Chain       ChainGateway
	Mailer      Mailer
	Publisher   ActivityPublisher // opcional
	Metrics     WorkflowMetrics   // opcional
	Notify      NotifyConfig
	NFTExternal string // external_url de la metadata ARC-69
	Log         *logger.Logger
}

// WorkflowUseCase orquesta el ciclo on-chain de un documento:
//
//	completed → mint → minted → claim → claimed → prepareSwap/swap → swapped
//
// Cada paso valida el estado, ejecuta el grupo en Algorand y, solo si la red
// confirma, persiste NFTs, estado y actividad en una única transacción SQL
// donde el documento se relee con bloqueo y se revalida el estado.
type WorkflowUseCase struct {
	d WorkflowDeps
}

// NewWorkflowUseCase construye el caso de uso.
func NewWorkflowUseCase(d WorkflowDeps) *WorkflowUseCase {
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	return &WorkflowUseCase{d: d}
}

// Mint acuña el par de NFTs (developer + fee) del documento.
func (uc *WorkflowUseCase) Mint(ctx context.Context, actor Actor, id string) (out *dto.MintResponse, err error) {
	defer func() { uc.d.Metrics.ObserveTransition(entity.ActionMint, resultLabel(err)) }()

	doc, err := uc.loadForAction(ctx, id, entity.ActionMint)
	if err != nil {
		return nil, err
	}
	supply, err := creditsSupply(doc.Credits)
	if err != nil {
		return nil, err
	}
	developer, err := uc.developerOf(ctx, doc)
	if err != nil {
		return nil, err
	}

	meta, err := arc69.Build(doc, arc69.Options{ExternalURL: uc.d.NFTExternal})
	if err != nil {
		return nil, err
	}
	note, err := arc69.Encode(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var receipt *MintReceipt
	err = uc.chainCall("mint", func() (callErr error) {
		receipt, callErr = uc.d.Chain.MintCarbonNFT(ctx, MintRequest{
			DocumentID: doc.ID,
			Credits:    supply,
			Note:       note,
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	uc.d.Log.Info().
		Str("document_id", doc.ID).
		Str("txn_id", receipt.TxnID).
		Uint64("developer_asa_id", receipt.DeveloperAsaID).
		Uint64("fee_asa_id", receipt.FeeAsaID).
		Msg("NFTs acuñados")

	now := time.Now()
	base := entity.Nft{
		AsaTxnID:         receipt.TxnID,
		GroupID:          receipt.GroupID,
		Metadata:         note,
		CarbonDocumentID: doc.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	devNft, feeNft := base, base
	devNft.ID, devNft.TxnType, devNft.AsaID, devNft.OwnerAddress =
		uuid.New().String(), entity.NftTxnAssetCreation, receipt.DeveloperAsaID, developer.PublicAddress
	feeNft.ID, feeNft.TxnType, feeNft.AsaID, feeNft.OwnerAddress =
		uuid.New().String(), entity.NftTxnFeeAssetCreation, receipt.FeeAsaID, receipt.CreatorAddress

	activity := newActivity(actor.UserID, doc, entity.ActivityMint, receipt.TxnID)
	err = uc.d.TxRunner.RunWorkflow(ctx, func(docRepo repository.CarbonDocumentRepository, nftRepo repository.NftRepository, activityRepo repository.ActivityRepository) error {
		locked, err := lockForAction(ctx, docRepo, id, entity.ActionMint)
		if err != nil {
			return err
		}
		if err := nftRepo.Create(ctx, &devNft); err != nil {
			return err
		}
		if err := nftRepo.Create(ctx, &feeNft); err != nil {
			return err
		}
		locked.Status = entity.DocumentStatusMinted
		locked.DeveloperNftID = devNft.ID
		locked.FeeNftID = feeNft.ID
		locked.UpdatedAt = now
		if err := docRepo.Update(ctx, locked); err != nil {
			return err
		}
		doc = locked
		return activityRepo.Create(ctx, activity)
	})
	if err != nil {
		uc.d.Log.Error().Err(err).
			Str("document_id", id).
			Uint64("developer_asa_id", receipt.DeveloperAsaID).
			Uint64("fee_asa_id", receipt.FeeAsaID).
			Msg("NFTs acuñados on-chain pero no persistidos")
		return nil, err
	}
	uc.afterTransition(ctx, doc, activity, "Document minted")

	return &dto.MintResponse{
		Document:     *toDocumentResponse(doc),
		DeveloperNft: *ToNftResponse(&devNft),
		FeeNft:       *ToNftResponse(&feeNft),
	}, nil
}

// Claim mueve el NFT del desarrollador desde el escrow de la app a su wallet.
func (uc *WorkflowUseCase) Claim(ctx context.Context, actor Actor, id string) (out *dto.ClaimResponse, err error) {
	defer func() { uc.d.Metrics.ObserveTransition(entity.ActionClaim, resultLabel(err)) }()

	doc, err := uc.loadForAction(ctx, id, entity.ActionClaim)
	if err != nil {
		return nil, err
	}
	developer, err := uc.developerOf(ctx, doc)
	if err != nil {
		return nil, err
	}
	devNft, err := uc.developerNft(ctx, doc)
	if err != nil {
		return nil, err
	}

	var receipt *ChainReceipt
	err = uc.chainCall("claim", func() (callErr error) {
		receipt, callErr = uc.d.Chain.ClaimNFT(ctx, devNft.AsaID, developer.PublicAddress)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	activity := newActivity(actor.UserID, doc, entity.ActivityClaim, receipt.TxnID)
	err = uc.d.TxRunner.RunWorkflow(ctx, func(docRepo repository.CarbonDocumentRepository, nftRepo repository.NftRepository, activityRepo repository.ActivityRepository) error {
		locked, err := lockForAction(ctx, docRepo, id, entity.ActionClaim)
		if err != nil {
			return err
		}
		if err := nftRepo.UpdateOwner(ctx, devNft.ID, developer.PublicAddress, receipt.TxnID); err != nil {
			return err
		}
		locked.Status = entity.DocumentStatusClaimed
		locked.UpdatedAt = time.Now()
		if err := docRepo.Update(ctx, locked); err != nil {
			return err
		}
		doc = locked
		return activityRepo.Create(ctx, activity)
	})
	if err != nil {
		return nil, err
	}
	uc.d.Log.Info().Str("document_id", doc.ID).Str("txn_id", receipt.TxnID).Msg("NFT reclamado")
	uc.afterTransition(ctx, doc, activity, "Document claimed")

	return &dto.ClaimResponse{Document: *toDocumentResponse(doc), TxnID: receipt.TxnID}, nil
}

// PrepareSwap compone el grupo atómico de swap para que el dueño lo firme en su wallet.
func (uc *WorkflowUseCase) PrepareSwap(ctx context.Context, actor Actor, id string) (out *dto.PrepareSwapResponse, err error) {
	defer func() { uc.d.Metrics.ObserveTransition(entity.ActionPrepareSwap, resultLabel(err)) }()

	doc, err := uc.loadForAction(ctx, id, entity.ActionPrepareSwap)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(doc) {
		return nil, domain.ErrForbidden
	}
	owner, err := uc.developerOf(ctx, doc)
	if err != nil {
		return nil, err
	}
	devNft, err := uc.developerNft(ctx, doc)
	if err != nil {
		return nil, err
	}

	var group *SwapGroup
	err = uc.chainCall("prepare_swap", func() (callErr error) {
		group, callErr = uc.d.Chain.PrepareSwap(ctx, devNft.AsaID, owner.PublicAddress)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	activity := newActivity(actor.UserID, doc, entity.ActivityPrepareSwap, "")
	err = uc.d.TxRunner.RunWorkflow(ctx, func(docRepo repository.CarbonDocumentRepository, _ repository.NftRepository, activityRepo repository.ActivityRepository) error {
		locked, err := lockForAction(ctx, docRepo, id, entity.ActionPrepareSwap)
		if err != nil {
			return err
		}
		locked.SwapGroupID = group.GroupID
		locked.UpdatedAt = time.Now()
		if err := docRepo.Update(ctx, locked); err != nil {
			return err
		}
		return activityRepo.Create(ctx, activity)
	})
	if err != nil {
		return nil, err
	}
	uc.d.Log.Info().Str("document_id", doc.ID).Str("group_id", group.GroupID).Msg("grupo de swap preparado")
	if err := uc.d.Publisher.Publish(ctx, activity); err != nil {
		uc.d.Log.Warn().Err(err).Str("activity_id", activity.ID).Msg("publicar actividad")
	}
	return toPrepareSwapResponse(doc.ID, group), nil
}

// Swap envía el grupo firmado por el dueño (si lo hay) y marca el documento como swapped.
// Sin transacciones firmadas solo se aplica la transición de estado.
func (uc *WorkflowUseCase) Swap(ctx context.Context, actor Actor, id string, in dto.SwapRequest) (out *dto.SwapResponse, err error) {
	defer func() { uc.d.Metrics.ObserveTransition(entity.ActionSwap, resultLabel(err)) }()

	doc, err := uc.loadForAction(ctx, id, entity.ActionSwap)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(doc) {
		return nil, domain.ErrForbidden
	}

	var receipt *ChainReceipt
	if len(in.SignedTxns) > 0 {
		if doc.SwapGroupID == "" {
			return nil, fmt.Errorf("%w: el swap no fue preparado", domain.ErrConflict)
		}
		blobs := make([][]byte, 0, len(in.SignedTxns))
		for i, s := range in.SignedTxns {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("%w: signed_txns[%d] no es base64", domain.ErrInvalidInput, i)
			}
			blobs = append(blobs, b)
		}
		err = uc.chainCall("swap", func() (callErr error) {
			receipt, callErr = uc.d.Chain.SubmitSignedGroup(ctx, doc.SwapGroupID, blobs)
			return callErr
		})
		if err != nil {
			return nil, err
		}
	}

	txnID := ""
	if receipt != nil {
		txnID = receipt.TxnID
	}
	activity := newActivity(actor.UserID, doc, entity.ActivitySwap, txnID)
	err = uc.d.TxRunner.RunWorkflow(ctx, func(docRepo repository.CarbonDocumentRepository, nftRepo repository.NftRepository, activityRepo repository.ActivityRepository) error {
		locked, err := lockForAction(ctx, docRepo, id, entity.ActionSwap)
		if err != nil {
			return err
		}
		if receipt != nil && locked.DeveloperNftID != "" {
			if err := nftRepo.UpdateOwner(ctx, locked.DeveloperNftID, uc.d.Chain.EscrowAddress(), receipt.TxnID); err != nil {
				return err
			}
		}
		locked.Status = entity.DocumentStatusSwapped
		locked.UpdatedAt = time.Now()
		if err := docRepo.Update(ctx, locked); err != nil {
			return err
		}
		doc = locked
		return activityRepo.Create(ctx, activity)
	})
	if err != nil {
		return nil, err
	}
	uc.d.Log.Info().Str("document_id", doc.ID).Str("txn_id", txnID).Msg("documento canjeado")
	uc.afterTransition(ctx, doc, activity, "")

	return &dto.SwapResponse{Document: *toDocumentResponse(doc), TxnID: txnID}, nil
}

// loadForAction obtiene el documento y valida el estado de origen (sin bloqueo).
func (uc *WorkflowUseCase) loadForAction(ctx context.Context, id, action string) (*entity.CarbonDocument, error) {
	doc, err := uc.d.DocRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if ok, msg := doc.CheckAction(action); !ok {
		return nil, &domain.StatusError{Current: doc.Status, Message: msg}
	}
	return doc, nil
}

// lockForAction relee el documento con bloqueo dentro de la tx y revalida el estado.
func lockForAction(ctx context.Context, repo repository.CarbonDocumentRepository, id, action string) (*entity.CarbonDocument, error) {
	doc, err := repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if ok, msg := doc.CheckAction(action); !ok {
		return nil, &domain.StatusError{Current: doc.Status, Message: msg}
	}
	return doc, nil
}

func (uc *WorkflowUseCase) developerOf(ctx context.Context, doc *entity.CarbonDocument) (*entity.User, error) {
	user, err := uc.d.UserRepo.FindByEmail(ctx, doc.CreatedByUser)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: desarrollador %s", domain.ErrUserNotFound, doc.CreatedByUser)
	}
	if user.PublicAddress == "" {
		return nil, fmt.Errorf("%w: el desarrollador no tiene wallet registrada", domain.ErrInvalidAddress)
	}
	return user, nil
}

func (uc *WorkflowUseCase) developerNft(ctx context.Context, doc *entity.CarbonDocument) (*entity.Nft, error) {
	if doc.DeveloperNftID == "" {
		return nil, fmt.Errorf("%w: documento sin NFT de desarrollador", domain.ErrConflict)
	}
	nft, err := uc.d.NftRepo.GetByID(ctx, doc.DeveloperNftID)
	if err != nil {
		return nil, err
	}
	if nft == nil {
		return nil, fmt.Errorf("%w: NFT %s", domain.ErrNotFound, doc.DeveloperNftID)
	}
	return nft, nil
}

// chainCall mide la llamada y envuelve los errores de red en domain.ErrChain.
func (uc *WorkflowUseCase) chainCall(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	uc.d.Metrics.ObserveChainCall(op, time.Since(start), err)
	if err == nil {
		return nil
	}
	uc.d.Log.Error().Err(err).Str("operation", op).Msg("llamada a Algorand fallida")
	if errors.Is(err, domain.ErrSwapGroupMismatch) || errors.Is(err, domain.ErrInvalidAddress) || errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrChain, op, err)
}

// afterTransition publica la actividad y avisa al dueño (fallos solo se registran).
func (uc *WorkflowUseCase) afterTransition(ctx context.Context, doc *entity.CarbonDocument, a *entity.Activity, subject string) {
	if err := uc.d.Publisher.Publish(ctx, a); err != nil {
		uc.d.Log.Warn().Err(err).Str("activity_id", a.ID).Msg("publicar actividad")
	}
	if subject == "" || uc.d.Notify.Disabled {
		return
	}
	content := fmt.Sprintf("Your document %q is now %s.", doc.Title, doc.Status)
	if err := uc.d.Mailer.Send(ctx, subject, content, doc.CreatedByUser); err != nil {
		uc.d.Log.Error().Err(err).Str("document_id", doc.ID).Msg("envío de correo fallido")
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsStatusError(err):
		return "invalid_status"
	case errors.Is(err, domain.ErrChain):
		return "chain_error"
	default:
		return "error"
	}
}
