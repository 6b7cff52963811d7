package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/climatecoin/carbon-api/internal/application/auth"
	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/application/usecase"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	DocumentUC     *carbon.DocumentUseCase
	WorkflowUC     *carbon.WorkflowUseCase
	CertificateUC  *carbon.CertificateUseCase
	FileUC         *carbon.FileUseCase
	NftUC          *usecase.NftUseCase
	ActivityUC     *usecase.ActivityUseCase
	JWTSecret      string
	MaxUploadBytes int64
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleDeveloper)

	protected.Get("/users/me", authHandler.Me)

	// Carbon documents
	docHandler := NewCarbonDocumentHandler(deps.DocumentUC, deps.WorkflowUC, deps.CertificateUC, deps.NftUC, deps.MaxUploadBytes)
	docs := protected.Group("/carbon-documents", anyRole)
	docs.Post("/", docHandler.Create)
	docs.Get("/", docHandler.Find)
	docs.Get("/:id", docHandler.FindOne)
	docs.Put("/:id/review", adminOnly, docHandler.Review)
	docs.Post("/:id/mint", adminOnly, docHandler.Mint)
	docs.Post("/:id/claim", adminOnly, docHandler.Claim)
	docs.Post("/:id/prepare-swap", docHandler.PrepareSwap)
	docs.Post("/:id/swap", docHandler.Swap)
	docs.Get("/:id/certificate", docHandler.Certificate)
	docs.Get("/:id/nfts", docHandler.Nfts)

	// NFTs
	nftHandler := NewNftHandler(deps.NftUC)
	nfts := protected.Group("/nfts", anyRole)
	nfts.Get("/", adminOnly, nftHandler.List)
	nfts.Get("/:id", nftHandler.GetByID)

	// Activities
	activityHandler := NewActivityHandler(deps.ActivityUC)
	protected.Get("/activities", anyRole, activityHandler.List)

	// Files
	fileHandler := NewFileHandler(deps.FileUC)
	protected.Get("/files/:id", anyRole, fileHandler.Download)
}
