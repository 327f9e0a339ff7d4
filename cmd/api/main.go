package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/FichesVente-api/internal/application/auth"
	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/internal/application/sales"
	infrapdf "github.com/jhoicas/FichesVente-api/internal/infrastructure/pdf"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/sms"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/store"
	httpRouter "github.com/jhoicas/FichesVente-api/internal/interfaces/http"
	"github.com/jhoicas/FichesVente-api/pkg/config"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	repos, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén de datos")
	}
	defer repos.Close()

	ledger := inventory.NewStockLedger(repos.TxRunner, repos.StockItems, repos.Transactions, log)
	lifecycle := sales.NewSaleLifecycle(ledger, repos.Sales, log)

	// PDF: fiche de vente y rapport, con QR hacia el frontend
	renderer := infrapdf.NewRenderer(cfg.App.Name)
	tickets := sales.NewTicketUseCase(repos.Sales, renderer, cfg.App.PublicBaseURL)
	reportUC := report.NewReportUseCase(repos.Sales, repos.Reports, renderer, cfg.App.PublicBaseURL, log)
	exporter := report.NewCSVExporter(repos.Sales, ledger)

	userUC := auth.NewUserUseCase(repos.Users, log)
	authUC := auth.NewAuthUseCase(repos.Users, sms.NewLogSender(log),
		auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		},
		auth.SMSConfig{
			CodeTTL:     cfg.SMS.CodeTTL,
			MaxAttempts: cfg.SMS.MaxAttempts,
		},
		log,
	)
	bootstrapAdmin(ctx, userUC, cfg.Admin, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.PublicBaseURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Swagger UI en local: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Fiches de vente API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		UserUC:    userUC,
		Ledger:    ledger,
		Lifecycle: lifecycle,
		Tickets:   tickets,
		ReportUC:  reportUC,
		Exporter:  exporter,
		JWTSecret: cfg.JWT.Secret,
		StoreName: repos.Driver,
		Log:       log,
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

// bootstrapAdmin crea el administrador inicial cuando no hay usuarios.
func bootstrapAdmin(ctx context.Context, uc *auth.UserUseCase, admin config.AdminConfig, log *logger.Logger) {
	if admin.Password == "" {
		log.Warn().Msg("ADMIN_PASSWORD vacío: no se crea administrador inicial")
		return
	}
	created, err := uc.Bootstrap(ctx, dto.CreateUserRequest{
		Username: admin.Username,
		Password: admin.Password,
		Phone:    admin.Phone,
		Email:    admin.Email,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador inicial")
	}
	if created {
		log.Info().Str("user", admin.Username).Msg("administrador inicial listo")
	}
}
