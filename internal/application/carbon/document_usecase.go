package carbon

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
	"github.com/climatecoin/carbon-api/pkg/logger"
)

// DocumentFileField campo del multipart que contiene el PDF del documento.
const DocumentFileField = "document"

// collectionUID identificador de la colección en el content manager.
const collectionUID = "application::carbon-documents.carbon-documents"

// NotifyConfig datos para armar los enlaces y destinatarios de los correos.
type NotifyConfig struct {
	Disabled          bool // APP_ENV=test
	BaseURL           string
	ContentManagerURL string
}

// DocumentUseCase alta, consulta y revisión de CarbonDocuments.
type DocumentUseCase struct {
	docRepo   repository.CarbonDocumentRepository
	txRunner  DocumentTxRunner
	storage   FileStorage
	mailer    Mailer
	publisher ActivityPublisher
	notify    NotifyConfig
	log       *logger.Logger
}

// NewDocumentUseCase construye el caso de uso. publisher puede ser nil.
func NewDocumentUseCase(
	docRepo repository.CarbonDocumentRepository,
	txRunner DocumentTxRunner,
	storage FileStorage,
	mailer Mailer,
	publisher ActivityPublisher,
	notify NotifyConfig,
	log *logger.Logger,
) *DocumentUseCase {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &DocumentUseCase{
		docRepo:   docRepo,
		txRunner:  txRunner,
		storage:   storage,
		mailer:    mailer,
		publisher: publisher,
		notify:    notify,
		log:       log,
	}
}

// Create guarda el archivo subido, persiste el documento en estado pending
// y avisa por correo al buzón de operaciones.
// Archivo, documento y actividad se insertan en una sola transacción; si falla,
// el archivo ya escrito en el storage se borra.
func (uc *DocumentUseCase) Create(ctx context.Context, actor Actor, in dto.CreateCarbonDocumentRequest, files []dto.UploadedFile) (*dto.CarbonDocumentResponse, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title es requerido", domain.ErrInvalidInput)
	}
	credits, err := parseCredits(in.Credits)
	if err != nil {
		return nil, err
	}
	sdgs, err := parseCollection(in.Sdgs)
	if err != nil {
		return nil, fmt.Errorf("%w: sdgs: %v", domain.ErrInvalidInput, err)
	}
	upload, err := documentUpload(files)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &entity.CarbonDocument{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		SerialNumber:  in.SerialNumber,
		RegistryName:  in.RegistryName,
		ProjectType:   in.ProjectType,
		Country:       in.Country,
		VintageYear:   in.VintageYear,
		Credits:       credits,
		Sdgs:          sdgs,
		Status:        entity.DocumentStatusPending,
		CreatedByUser: actor.Email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var stored *entity.File
	if upload != nil {
		stored, err = uc.storage.Save(ctx, upload.Name, upload.Data)
		if err != nil {
			return nil, fmt.Errorf("guardar archivo %s: %w", upload.Name, err)
		}
		doc.DocumentFileID = stored.ID
	}

	activity := newActivity(actor.UserID, doc, entity.ActivityCreate, "")
	err = uc.txRunner.RunDocument(ctx, func(docRepo repository.CarbonDocumentRepository, fileRepo repository.FileRepository, activityRepo repository.ActivityRepository) error {
		if stored != nil {
			if err := fileRepo.Create(ctx, stored); err != nil {
				return err
			}
		}
		if err := docRepo.Create(ctx, doc); err != nil {
			return err
		}
		return activityRepo.Create(ctx, activity)
	})
	if err != nil {
		if stored != nil {
			uc.discardFile(ctx, stored)
		}
		return nil, err
	}
	uc.publish(ctx, activity)

	if !uc.notify.Disabled {
		url := fmt.Sprintf("%s%s/%s/%s", uc.notify.BaseURL, uc.notify.ContentManagerURL, collectionUID, doc.ID)
		content := fmt.Sprintf("User %s sent a new document.<br>Available here: %s", actor.Email, url)
		uc.sendMail(ctx, "New document", content)
	}
	return toDocumentResponse(doc), nil
}

// documentUpload devuelve la única parte "document" del multipart (o nil).
// Cualquier otro campo de archivo, o un "document" repetido, es un error de validación.
func documentUpload(files []dto.UploadedFile) (*dto.UploadedFile, error) {
	var out *dto.UploadedFile
	for i := range files {
		f := &files[i]
		if f.Field != DocumentFileField {
			return nil, fmt.Errorf("%w: campo de archivo desconocido %q", domain.ErrInvalidInput, f.Field)
		}
		if out != nil {
			return nil, fmt.Errorf("%w: solo se admite un archivo en %q", domain.ErrInvalidInput, DocumentFileField)
		}
		out = f
	}
	return out, nil
}

func (uc *DocumentUseCase) discardFile(ctx context.Context, f *entity.File) {
	if err := uc.storage.Remove(ctx, f); err != nil {
		uc.log.Error().Err(err).Str("file_id", f.ID).Msg("borrar archivo huérfano")
	}
}

// Find lista documentos: el admin ve todos, el desarrollador solo los suyos.
func (uc *DocumentUseCase) Find(ctx context.Context, actor Actor, status string, limit, offset int) (*dto.CarbonDocumentListResponse, error) {
	if status != "" && !entity.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: status desconocido %q", domain.ErrInvalidInput, status)
	}
	f := repository.CarbonDocumentFilter{Status: status, Limit: limit, Offset: offset}
	if !actor.IsAdmin() {
		f.CreatedByUser = actor.Email
	}
	list, total, err := uc.docRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CarbonDocumentResponse, 0, len(list))
	for _, d := range list {
		items = append(items, *toDocumentResponse(d))
	}
	return &dto.CarbonDocumentListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// FindOne obtiene un documento. Devuelve (nil, nil) si no existe.
func (uc *DocumentUseCase) FindOne(ctx context.Context, actor Actor, id string) (*dto.CarbonDocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	if !actor.IsAdmin() && !actor.Owns(doc) {
		return nil, domain.ErrForbidden
	}
	return toDocumentResponse(doc), nil
}

// Review aprueba (completed) o rechaza (rejected) un documento pendiente y avisa al dueño.
// La fila se bloquea durante la revisión: dos revisiones concurrentes no pueden ganar ambas.
func (uc *DocumentUseCase) Review(ctx context.Context, actor Actor, id string, approved bool) (*dto.CarbonDocumentResponse, error) {
	var (
		doc      *entity.CarbonDocument
		activity *entity.Activity
	)
	err := uc.txRunner.RunDocument(ctx, func(docRepo repository.CarbonDocumentRepository, _ repository.FileRepository, activityRepo repository.ActivityRepository) error {
		locked, err := lockForAction(ctx, docRepo, id, entity.ActionReview)
		if err != nil {
			return err
		}
		locked.Status = entity.DocumentStatusRejected
		if approved {
			locked.Status = entity.DocumentStatusCompleted
		}
		locked.UpdatedAt = time.Now()
		if err := docRepo.Update(ctx, locked); err != nil {
			return err
		}
		activity = newActivity(actor.UserID, locked, entity.ActivityReview, "")
		if err := activityRepo.Create(ctx, activity); err != nil {
			return err
		}
		doc = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, activity)
	uc.log.Info().Str("document_id", doc.ID).Str("status", doc.Status).Msg("documento revisado")

	if !uc.notify.Disabled {
		content := fmt.Sprintf("Your document %q has been reviewed. Current status: %s", doc.Title, doc.Status)
		uc.sendMail(ctx, "Document reviewed", content, doc.CreatedByUser)
	}
	return toDocumentResponse(doc), nil
}

// sendMail envía un correo; los fallos se registran y no interrumpen la petición.
func (uc *DocumentUseCase) sendMail(ctx context.Context, subject, content string, to ...string) {
	if err := uc.mailer.Send(ctx, subject, content, to...); err != nil {
		uc.log.Error().Err(err).Str("subject", subject).Msg("envío de correo fallido")
		return
	}
	uc.log.Info().Str("subject", subject).Strs("to", to).Msg("correo enviado")
}

func (uc *DocumentUseCase) publish(ctx context.Context, a *entity.Activity) {
	if err := uc.publisher.Publish(ctx, a); err != nil {
		uc.log.Warn().Err(err).Str("activity_id", a.ID).Msg("publicar actividad")
	}
}

func newActivity(userID string, doc *entity.CarbonDocument, kind, txnID string) *entity.Activity {
	return &entity.Activity{
		ID:               uuid.New().String(),
		UserID:           userID,
		CarbonDocumentID: doc.ID,
		Type:             kind,
		TxnID:            txnID,
		Supply:           doc.Credits,
		CreatedAt:        time.Now(),
	}
}

// maxCredits create_nft recibe el supply como uint64.
var maxCredits = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// parseCredits exige un entero positivo: es el supply del ASA.
func parseCredits(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: credits no es numérico", domain.ErrInvalidInput)
	}
	if !d.IsPositive() || !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("%w: credits debe ser un entero positivo", domain.ErrInvalidInput)
	}
	if d.GreaterThan(maxCredits) {
		return decimal.Zero, fmt.Errorf("%w: credits supera %s", domain.ErrInvalidInput, maxCredits)
	}
	return d, nil
}

// creditsSupply convierte los créditos persistidos al supply on-chain sin truncar.
func creditsSupply(d decimal.Decimal) (uint64, error) {
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: credits %s no es entero", domain.ErrInvalidInput, d)
	}
	b := d.BigInt()
	if b.Sign() <= 0 || !b.IsUint64() {
		return 0, fmt.Errorf("%w: credits %s fuera de rango", domain.ErrInvalidInput, d)
	}
	return b.Uint64(), nil
}

// parseCollection decodifica un atributo de colección enviado como texto JSON.
func parseCollection(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
