package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	json "github.com/goccy/go-json"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/climatecoin/carbon-api/internal/application/auth"
	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/application/usecase"
	"github.com/climatecoin/carbon-api/internal/infrastructure/algorand"
	"github.com/climatecoin/carbon-api/internal/infrastructure/mailer"
	"github.com/climatecoin/carbon-api/internal/infrastructure/messaging"
	"github.com/climatecoin/carbon-api/internal/infrastructure/metrics"
	infrapdf "github.com/climatecoin/carbon-api/internal/infrastructure/pdf"
	"github.com/climatecoin/carbon-api/internal/infrastructure/postgres"
	"github.com/climatecoin/carbon-api/internal/infrastructure/storage"
	httpRouter "github.com/climatecoin/carbon-api/internal/interfaces/http"
	"github.com/climatecoin/carbon-api/pkg/config"
	"github.com/climatecoin/carbon-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			AttachStacktrace: true,
		}); err != nil {
			log.Error().Err(err).Msg("inicializar Sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("migraciones de base de datos")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	fileRepo := postgres.NewFileRepository(pool)
	docRepo := postgres.NewCarbonDocumentRepository(pool)
	nftRepo := postgres.NewNftRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	chain, err := algorand.NewClient(cfg.Algorand, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente Algorand")
	}

	files, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.MaxMB)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de archivos")
	}

	// Sin brokers no se publica: evitar un *KafkaPublisher nil dentro de la interfaz.
	var publisher carbon.ActivityPublisher
	if kp := messaging.NewKafkaPublisher(cfg.Kafka); kp != nil {
		publisher = kp
		defer kp.Close()
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de actividades en Kafka")
	}

	mail := mailer.New(cfg.Mail, log)
	appMetrics := metrics.New()
	notify := carbon.NotifyConfig{
		Disabled:          cfg.App.IsTest(),
		BaseURL:           cfg.App.BaseURL,
		ContentManagerURL: cfg.App.ContentManagerURL,
	}

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	documentUC := carbon.NewDocumentUseCase(docRepo, txRunner, files, mail, publisher, notify, log)
	workflowUC := carbon.NewWorkflowUseCase(carbon.WorkflowDeps{
		DocRepo:     docRepo,
		NftRepo:     nftRepo,
		UserRepo:    userRepo,
		TxRunner:    txRunner,
		Chain:       chain,
		Mailer:      mail,
		Publisher:   publisher,
		Metrics:     appMetrics,
		Notify:      notify,
		NFTExternal: cfg.Algorand.NFTExternalURL,
		Log:         log,
	})
	certificateUC := carbon.NewCertificateUseCase(docRepo, nftRepo, infrapdf.NewMarotoPDFGenerator(), cfg.Algorand.ExplorerURL)
	fileUC := carbon.NewFileUseCase(fileRepo, docRepo, files)
	nftUC := usecase.NewNftUseCase(nftRepo)
	activityUC := usecase.NewActivityUseCase(activityRepo)

	maxUpload := int64(cfg.Upload.MaxMB) << 20
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // mint/claim esperan confirmación on-chain
		IdleTimeout:  time.Second * 60,
		BodyLimit:    int(maxUpload) + 1<<20,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(httpRouter.SentryMiddleware())
	app.Use(appMetrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Climatecoin API",
	}))

	app.Get("/metrics", appMetrics.Handler())
	app.Get("/health", func(c *fiber.Ctx) error {
		hctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		status := fiber.Map{"status": "ok", "service": cfg.App.Name, "database": "ok", "algorand": "ok"}
		code := fiber.StatusOK
		if err := pool.Ping(hctx); err != nil {
			status["database"], status["status"], code = err.Error(), "degraded", fiber.StatusServiceUnavailable
		}
		if err := chain.Health(hctx); err != nil {
			status["algorand"], status["status"], code = err.Error(), "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(status)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		DocumentUC:     documentUC,
		WorkflowUC:     workflowUC,
		CertificateUC:  certificateUC,
		FileUC:         fileUC,
		NftUC:          nftUC,
		ActivityUC:     activityUC,
		JWTSecret:      cfg.JWT.Secret,
		MaxUploadBytes: maxUpload,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
