package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/inventory"
	domreport "github.com/jhoicas/FichesVente-api/internal/domain/report"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/domain/sale"
)

// Codificaciones de salida CSV.
const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1252 = "windows-1252" // Excel en Windows abre así los acentos sin asistente
)

const (
	summaryTopProducts = 10
	frDate             = "02/01/2006"
)

// ParseCharset normaliza el parámetro charset; vacío = UTF-8.
func ParseCharset(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf8", CharsetUTF8:
		return CharsetUTF8, nil
	case "cp1252", "latin1", CharsetWindows1252:
		return CharsetWindows1252, nil
	}
	return "", domain.NewValidationError("charset", "use utf-8 o windows-1252")
}

// CSVExporter exporta ventas, resumen y stock en CSV.
type CSVExporter struct {
	sales repository.SaleRepository
	stock StockCatalog
}

// NewCSVExporter construye el exportador.
func NewCSVExporter(sales repository.SaleRepository, stock StockCatalog) *CSVExporter {
	return &CSVExporter{sales: sales, stock: stock}
}

func newWriter(w io.Writer, charset string) (*csv.Writer, func() error) {
	if charset == CharsetWindows1252 {
		enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
		tw := transform.NewWriter(w, enc)
		cw := csv.NewWriter(tw)
		return cw, func() error {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			return tw.Close()
		}
	}
	cw := csv.NewWriter(w)
	return cw, func() error {
		cw.Flush()
		return cw.Error()
	}
}

// ExportSales una fila por venta con sus productos resumidos en una celda.
func (e *CSVExporter) ExportSales(ctx context.Context, w io.Writer, filter repository.SaleFilter, charset string) error {
	list, err := e.listSales(ctx, filter)
	if err != nil {
		return err
	}
	cw, done := newWriter(w, charset)
	header := []string{
		"ID", "Date de Vente", "Téléphone Client", "Téléphone Client 2", "Adresse de Livraison",
		"Livreur", "Mode de Paiement", "Mode de Paiement 2", "Produits", "Total", "Statut",
		"Validée", "Date de Création",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range list {
		products := make([]string, 0, len(s.Items))
		for _, it := range s.Items {
			products = append(products, fmt.Sprintf("%s (%d %s x %s F CFA)", it.ProductName, it.Quantity, it.Unit, it.UnitPrice.String()))
		}
		validated := "Non"
		if s.IsValidated {
			validated = "Oui"
		}
		row := []string{
			s.ID,
			s.SaleDate.Format(frDate),
			s.CustomerPhone,
			s.CustomerPhone2,
			s.DeliveryAddress,
			s.Courier,
			s.PaymentMethod,
			s.PaymentMethod2,
			strings.Join(products, "; "),
			s.Total().String(),
			sale.NormalizeStatus(s.Status),
			validated,
			s.CreatedAt.Format(frDate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return done()
}

// ExportSummary estadísticas generales y los 10 productos más vendidos (ventas ACTIVE).
func (e *CSVExporter) ExportSummary(ctx context.Context, w io.Writer, filter repository.SaleFilter, charset string) error {
	list, err := e.listSales(ctx, filter)
	if err != nil {
		return err
	}
	sum := domreport.Summarize(list)
	cw, done := newWriter(w, charset)
	rows := [][]string{
		{"RÉSUMÉ DES VENTES", ""},
		{"", ""},
		{"Statistiques Générales", ""},
		{"Total des fiches créées", strconv.Itoa(len(list))},
		{"Ventes actives", strconv.Itoa(sum.SaleCount)},
		{"Ventes en attente", strconv.Itoa(sum.PendingCount)},
		{"Ventes annulées", strconv.Itoa(sum.CancelledCount)},
		{"Ventes remboursées", strconv.Itoa(sum.RefundedCount)},
		{"", ""},
		{"Chiffre d'affaires", ""},
		{"Revenus totaux (F CFA)", sum.TotalRevenue.String()},
		{"Moyenne par vente (F CFA)", sum.AverageSale.String()},
		{"", ""},
		{"Produits les plus vendus", ""},
	}
	for _, l := range domreport.TopByQuantity(sum, summaryTopProducts) {
		rows = append(rows, []string{l.Name, fmt.Sprintf("%d unités - %s F CFA", l.Quantity, l.Revenue.String())})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return done()
}

// ExportStock artículos activos con porcentaje y estado.
func (e *CSVExporter) ExportStock(ctx context.Context, w io.Writer, charset string) error {
	items, err := e.stock.ListItems(ctx)
	if err != nil {
		return err
	}
	cw, done := newWriter(w, charset)
	if err := cw.Write([]string{"Produit", "Stock", "Stock de base", "Seuil d'alerte", "Unité", "Prix unitaire (F CFA)", "Pourcentage", "État"}); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			it.Name,
			strconv.Itoa(it.OnHand),
			strconv.Itoa(it.Baseline),
			strconv.Itoa(it.AlertThreshold),
			it.Unit,
			it.UnitPrice.String(),
			strconv.Itoa(inventory.Percentage(it.OnHand, it.Baseline)) + "%",
			inventory.Level(it),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return done()
}

// listSales sin filtro de estado excluye las ventas en la papelera.
func (e *CSVExporter) listSales(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = []string{
			entity.SaleStatusActive, entity.SaleStatusPending,
			entity.SaleStatusCancelled, entity.SaleStatusRefunded,
		}
	}
	list, err := e.sales.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("export: listar ventas: %w", err)
	}
	return list, nil
}
