// Package pdf genera los documentos imprimibles: la fiche de vente (ticket)
// y el rapport de ventes de un periodo.
//
// Layout de la fiche (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  FICHE DE VENTE #xxxxxx          │  Date + statut            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENT: téléphones / adresse / livreur / paiement           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Qté | Produit | Unité | P.U. | Sous-total            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL                                                       │
//	│  QR (enlace a la ficha)                                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domainreport "github.com/jhoicas/FichesVente-api/internal/domain/report"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorGreen   = &props.Color{Red: 20, Green: 120, Blue: 60}
	colorOrange  = &props.Color{Red: 200, Green: 110, Blue: 0}
)

const currency = "F CFA"

var statusLabels = map[string]string{
	entity.SaleStatusActive:    "ACTIVE",
	entity.SaleStatusPending:   "EN ATTENTE",
	entity.SaleStatusCancelled: "ANNULÉE",
	entity.SaleStatusRefunded:  "REMBOURSÉE",
	entity.SaleStatusDeleted:   "SUPPRIMÉE",
}

var periodLabels = map[string]string{
	entity.ReportDaily:   "Journalier",
	entity.ReportMonthly: "Mensuel",
	entity.ReportYearly:  "Annuel",
}

// ── Renderer ──────────────────────────────────────────────────────────────────

// Renderer implementa sales.TicketRenderer y report.ReportRenderer usando Maroto v2.
type Renderer struct {
	author string
}

// NewRenderer construye el generador. author se escribe en los metadatos del PDF.
func NewRenderer(author string) *Renderer {
	return &Renderer{author: nonEmpty(author, "fiches-vente")}
}

func (r *Renderer) newDocument(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(r.author, true).
		Build()
	return maroto.New(cfg)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// RenderSaleTicket genera la fiche de vente de una venta.
func (r *Renderer) RenderSaleTicket(_ context.Context, sale *entity.Sale, qrURL string) ([]byte, error) {
	if sale == nil {
		return nil, fmt.Errorf("pdf: venta nil")
	}
	m := r.newDocument("Fiche de vente #" + sale.ShortID())

	m.AddRows(ticketHeaderRow(sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRows(sale)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow(
		header{"Qté", 1, align.Center},
		header{"Produit", 5, align.Left},
		header{"Unité", 2, align.Center},
		header{"Prix unit.", 2, align.Right},
		header{"Sous-total", 2, align.Right},
	))
	m.AddRows(saleItemRows(sale.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow("TOTAL :", sale.Total()))

	if qrURL != "" {
		m.AddRows(line.NewRow(3))
		m.AddRows(qrRow(qrURL, "Scannez le code QR pour\nconsulter cette fiche en ligne."))
	}
	return generate(m)
}

// RenderSalesReport genera el PDF de un reporte de ventas.
func (r *Renderer) RenderSalesReport(_ context.Context, rep *entity.SalesReport, qrURL string) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("pdf: reporte nil")
	}
	m := r.newDocument("Rapport de ventes " + periodLabel(rep.Period))

	m.AddRows(reportHeaderRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRows(rep.Summary)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("VENTES PAR PRODUIT"))
	m.AddRows(tableHeaderRow(
		header{"#", 1, align.Center},
		header{"Produit", 6, align.Left},
		header{"Quantité", 2, align.Center},
		header{"Chiffre d'affaires", 3, align.Right},
	))
	products := domainreport.ByRevenue(rep.Summary)
	if len(products) == 0 {
		m.AddRows(row.New(7).Add(col.New(12).Add(
			text.New("Aucune vente sur la période.", props.Text{Size: 8, Top: 1, Color: colorGray, Align: align.Center}),
		)))
	}
	m.AddRows(productRows(products)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow("CHIFFRE D'AFFAIRES :", rep.Summary.TotalRevenue))

	if qrURL != "" {
		m.AddRows(line.NewRow(3))
		m.AddRows(qrRow(qrURL, "Scannez le code QR pour\nconsulter ce rapport en ligne."))
	}
	return generate(m)
}

// ── Secciones de la fiche ─────────────────────────────────────────────────────

func ticketHeaderRow(sale *entity.Sale) core.Row {
	status := sale.Status
	validated := ""
	if sale.IsValidated {
		validated = "Validée"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("FICHE DE VENTE #"+strings.ToUpper(sale.ShortID()), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Date : "+sale.SaleDate.Format("02/01/2006"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(nonEmpty(statusLabels[status], status), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right,
				Color: statusColor(status), Top: 1,
			}),
			text.New(validated, props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGreen,
			}),
		),
	)
}

func customerRows(sale *entity.Sale) []core.Row {
	phones := sale.CustomerPhone
	if sale.CustomerPhone2 != "" {
		phones += " / " + sale.CustomerPhone2
	}
	payment := sale.PaymentMethod
	if sale.PaymentMethod2 != "" {
		payment += " + " + sale.PaymentMethod2
	}
	return []core.Row{
		sectionTitle("CLIENT"),
		row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Téléphone : %s   |   Adresse : %s",
				nonEmpty(phones, "-"), nonEmpty(sale.DeliveryAddress, "-"),
			), props.Text{Size: 8, Top: 1, Color: colorGray}),
		)),
		row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Livreur : %s   |   Paiement : %s",
				nonEmpty(sale.Courier, "-"), nonEmpty(payment, "-"),
			), props.Text{Size: 8, Top: 1, Color: colorGray}),
		)),
	}
}

func saleItemRows(items []entity.SaleItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.ProductName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(it.Unit, "-"), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(money(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(it.Subtotal()), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// ── Secciones del rapport ─────────────────────────────────────────────────────

func reportHeaderRow(rep *entity.SalesReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("RAPPORT DE VENTES", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Période : %s au %s",
				rep.PeriodStart.Format("02/01/2006"), rep.PeriodEnd.Format("02/01/2006"),
			), props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(periodLabel(rep.Period), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Généré le "+rep.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func summaryRows(s entity.ReportSummary) []core.Row {
	kv := func(label, value string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		)
	}
	return []core.Row{
		sectionTitle("RÉSUMÉ"),
		row.New(12).Add(
			kv("Ventes actives", fmt.Sprint(s.SaleCount)),
			kv("Unités vendues", fmt.Sprint(s.TotalUnitsSold)),
			kv("Panier moyen", money(s.AverageSale)),
		),
		row.New(12).Add(
			kv("Annulées", fmt.Sprintf("%d (%s)", s.CancelledCount, money(s.CancelledTotal))),
			kv("Remboursées", fmt.Sprintf("%d (%s)", s.RefundedCount, money(s.RefundedTotal))),
			kv("En attente", fmt.Sprint(s.PendingCount)),
		),
	}
}

func productRows(products []domainreport.ProductLine) []core.Row {
	result := make([]core.Row, 0, len(products))
	for i, p := range products {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(i+1), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(p.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(fmt.Sprint(p.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(money(p.Revenue), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// ── Bloques comunes ───────────────────────────────────────────────────────────

type header struct {
	label string
	size  int
	align align.Type
}

// tableHeaderRow cabecera de tabla con fondo azul.
func tableHeaderRow(cols ...header) core.Row {
	cells := make([]core.Col, 0, len(cols))
	for _, h := range cols {
		cells = append(cells, col.New(h.size).Add(text.New(h.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: h.align,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cells...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func sectionTitle(label string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))
}

func totalRow(label string, amount decimal.Decimal) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(money(amount), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

func qrRow(url, caption string) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(url, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New(caption, props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray}),
			text.New(url, props.Text{Size: 6.5, Top: 18, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusColor(status string) *props.Color {
	switch status {
	case entity.SaleStatusActive:
		return colorGreen
	case entity.SaleStatusPending:
		return colorOrange
	case entity.SaleStatusCancelled, entity.SaleStatusRefunded, entity.SaleStatusDeleted:
		return colorRed
	}
	return colorGray
}

func periodLabel(p string) string {
	return nonEmpty(periodLabels[p], p)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formatea un importe entero en F CFA: 25000 → "25 000 F CFA".
func money(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	return sign + groupThousands(s) + " " + currency
}

// groupThousands inserta espacios de miles en un string numérico sin decimales.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
