package carbon

import (
	"context"
	"io"

	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

// CertificateUseCase certificado PDF de un documento acuñado.
type CertificateUseCase struct {
	docRepo     repository.CarbonDocumentRepository
	nftRepo     repository.NftRepository
	generator   CertificateGenerator
	explorerURL string
}

// NewCertificateUseCase construye el caso de uso.
func NewCertificateUseCase(docRepo repository.CarbonDocumentRepository, nftRepo repository.NftRepository, generator CertificateGenerator, explorerURL string) *CertificateUseCase {
	return &CertificateUseCase{docRepo: docRepo, nftRepo: nftRepo, generator: generator, explorerURL: explorerURL}
}

// Generate devuelve los bytes del PDF. Solo para documentos con NFTs acuñados.
func (uc *CertificateUseCase) Generate(ctx context.Context, actor Actor, id string) ([]byte, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if !actor.IsAdmin() && !actor.Owns(doc) {
		return nil, domain.ErrForbidden
	}
	if !doc.IsOnChain() {
		return nil, &domain.StatusError{Current: doc.Status, Message: "Document hasn't been minted"}
	}
	nfts, err := uc.nftRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateCertificate(ctx, doc, nfts, uc.explorerURL)
}

// FileUseCase descarga de archivos subidos.
type FileUseCase struct {
	fileRepo repository.FileRepository
	docRepo  repository.CarbonDocumentRepository
	storage  FileStorage
}

// NewFileUseCase construye el caso de uso.
func NewFileUseCase(fileRepo repository.FileRepository, docRepo repository.CarbonDocumentRepository, storage FileStorage) *FileUseCase {
	return &FileUseCase{fileRepo: fileRepo, docRepo: docRepo, storage: storage}
}

// Open abre un archivo si el actor es admin o dueño de un documento que lo referencia.
// El caller debe cerrar el reader.
func (uc *FileUseCase) Open(ctx context.Context, actor Actor, id string) (*entity.File, io.ReadCloser, error) {
	f, err := uc.fileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, domain.ErrNotFound
	}
	if !actor.IsAdmin() {
		ok, err := uc.docRepo.ReferencesFile(ctx, id, actor.Email)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, domain.ErrForbidden
		}
	}
	rc, err := uc.storage.Open(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return f, rc, nil
}
