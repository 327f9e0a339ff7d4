// seed carga artículos de stock desde un CSV y crea el administrador inicial.
//
// Uso: go run ./cmd/seed [-charset iso-8859-1] [ruta/stock.csv]
// Por defecto lee stock.csv en el directorio actual.
// Columnas: name;on_hand;baseline;alert_threshold;unit;unit_price (se admite ',' como separador).
// Los artículos ya existentes (mismo nombre normalizado) se omiten.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/FichesVente-api/internal/application/auth"
	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/store"
	"github.com/jhoicas/FichesVente-api/pkg/config"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

func main() {
	charset := flag.String("charset", "utf-8", "codificación del CSV: utf-8 o iso-8859-1")
	flag.Parse()

	csvPath := "stock.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("abrir CSV")
	}
	defer f.Close()

	r, err := decodeReader(f, *charset)
	if err != nil {
		log.Fatal().Err(err).Msg("codificación no soportada")
	}
	rows, err := parseItems(r)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("leer CSV")
	}

	ctx := context.Background()
	repos, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén de datos")
	}
	defer repos.Close()

	ledger := inventory.NewStockLedger(repos.TxRunner, repos.StockItems, repos.Transactions, log)
	created, skipped, failed := importItems(ctx, ledger, rows, log)

	if cfg.Admin.Password != "" {
		userUC := auth.NewUserUseCase(repos.Users, log)
		ok, err := userUC.Bootstrap(ctx, dto.CreateUserRequest{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
			Phone:    cfg.Admin.Phone,
			Email:    cfg.Admin.Email,
		})
		if err != nil {
			log.Error().Err(err).Msg("crear administrador inicial")
		} else if ok {
			log.Info().Str("user", cfg.Admin.Username).Msg("administrador inicial creado")
		}
	}

	fmt.Printf("Importado %s (%s): %d creados, %d existentes, %d con error\n",
		csvPath, repos.Driver, created, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func importItems(ctx context.Context, ledger *inventory.StockLedger, rows []itemRow, log *logger.Logger) (created, skipped, failed int) {
	for _, row := range rows {
		_, err := ledger.AddItem(ctx, row.NewItemInput)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		default:
			failed++
			log.Error().Err(err).Int("line", row.Line).Str("name", row.Name).Msg("artículo no importado")
		}
	}
	return created, skipped, failed
}
