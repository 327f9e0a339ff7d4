package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/FichesVente-api/internal/application/auth"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/internal/application/sales"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	UserUC    *auth.UserUseCase
	Ledger    *inventory.StockLedger
	Lifecycle *sales.SaleLifecycle
	Tickets   *sales.TicketUseCase
	ReportUC  *report.ReportUseCase
	Exporter  *report.CSVExporter
	JWTSecret string
	StoreName string // driver activo, se informa en /health
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": deps.StoreName})
	})

	api := app.Group("/api")
	admin := RequireRole(entity.RoleAdmin)

	// Auth (público salvo /me)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/verify-sms", authHandler.VerifySMS)
	authGroup.Post("/resend-sms", authHandler.ResendSMS)
	authGroup.Get("/me", AuthMiddleware(deps.JWTSecret), authHandler.Me)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Users (solo admin)
	userHandler := NewUserHandler(deps.UserUC, deps.Log)
	users := protected.Group("/users", admin)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
	users.Post("/:id/toggle-active", userHandler.ToggleActive)
	users.Post("/:id/toggle-2fa", userHandler.ToggleTwoFactor)

	// Stock: lectura para cualquier operador, escritura solo admin.
	// Las rutas fijas van antes que /:id.
	stockHandler := NewStockHandler(deps.Ledger, deps.Exporter, deps.Log)
	stock := protected.Group("/stock")
	stock.Get("/", stockHandler.List)
	stock.Post("/", admin, stockHandler.Create)
	stock.Get("/alerts", stockHandler.Alerts)
	stock.Get("/stats", stockHandler.Stats)
	stock.Get("/replenishment", stockHandler.Replenishment)
	stock.Get("/availability", stockHandler.Availability)
	stock.Get("/transactions", stockHandler.Transactions)
	stock.Get("/trash", admin, stockHandler.Trash)
	stock.Get("/export.csv", stockHandler.ExportCSV)
	stock.Get("/:id", stockHandler.GetByID)
	stock.Put("/:id", admin, stockHandler.Update)
	stock.Delete("/:id", admin, stockHandler.Delete)
	stock.Post("/:id/adjust", admin, stockHandler.Adjust)
	stock.Post("/:id/reset", admin, stockHandler.Reset)
	stock.Post("/:id/restore", admin, stockHandler.Restore)
	stock.Post("/:id/purge", admin, stockHandler.Purge)
	stock.Get("/:id/transactions", stockHandler.ItemTransactions)
	stock.Get("/:id/audit", stockHandler.Audit)

	// Sales: cualquier operador autenticado.
	saleHandler := NewSaleHandler(deps.Lifecycle, deps.Tickets, deps.Exporter, deps.Log)
	salesGroup := protected.Group("/sales")
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/export.csv", saleHandler.ExportCSV)
	salesGroup.Get("/summary.csv", saleHandler.SummaryCSV)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Put("/:id", saleHandler.Update)
	salesGroup.Delete("/:id", saleHandler.Delete)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)
	salesGroup.Post("/:id/refund", saleHandler.Refund)
	salesGroup.Post("/:id/hold", saleHandler.Hold)
	salesGroup.Post("/:id/validate", saleHandler.Validate)
	salesGroup.Get("/:id/ticket.pdf", saleHandler.Ticket)

	// Reports
	reportHandler := NewReportHandler(deps.ReportUC, deps.Log)
	reports := protected.Group("/reports")
	reports.Get("/", reportHandler.List)
	reports.Post("/", reportHandler.Generate)
	reports.Get("/charts", reportHandler.Charts)
	reports.Get("/:id", reportHandler.GetByID)
	reports.Delete("/:id", admin, reportHandler.Delete)
	reports.Get("/:id/pdf", reportHandler.PDF)
}
