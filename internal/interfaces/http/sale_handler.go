package http

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/internal/application/sales"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// SaleHandler fichas de venta y su ciclo de vida.
type SaleHandler struct {
	lifecycle *sales.SaleLifecycle
	tickets   *sales.TicketUseCase
	exporter  *report.CSVExporter
	log       *logger.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(lifecycle *sales.SaleLifecycle, tickets *sales.TicketUseCase, exporter *report.CSVExporter, log *logger.Logger) *SaleHandler {
	return &SaleHandler{lifecycle: lifecycle, tickets: tickets, exporter: exporter, log: log.Component("http_sales")}
}

// Create godoc
// @Summary      Crear ficha de venta
// @Description  Descuenta el stock de cada línea. Si alguna línea no tiene stock, no se crea nada y se listan todas las faltantes.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Datos de la venta"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	draft := sales.SaleDraft{
		CustomerPhone:   in.CustomerPhone,
		CustomerPhone2:  in.CustomerPhone2,
		DeliveryAddress: in.DeliveryAddress,
		Courier:         in.Courier,
		PaymentMethod:   strings.ToUpper(in.PaymentMethod),
		PaymentMethod2:  strings.ToUpper(in.PaymentMethod2),
		Items:           toSaleItems(in.Items),
		OnHold:          in.OnHold,
		Operator:        operator(c),
	}
	if in.SaleDate != nil {
		draft.SaleDate = *in.SaleDate
	}
	s, err := h.lifecycle.CreateSale(c.UserContext(), draft)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(s))
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "ACTIVE | PENDING | CANCELLED | REFUNDED | DELETED"
// @Param        from    query  string  false  "Fecha inicial (YYYY-MM-DD)"
// @Param        to      query  string  false  "Fecha final inclusive (YYYY-MM-DD)"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := strings.ToUpper(c.Query("status"))
	// La papelera de ventas es solo para admin.
	if status == entity.SaleStatusDeleted && GetRole(c) != entity.RoleAdmin {
		return writeError(c, h.log, domain.ErrForbidden)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	list, err := h.lifecycle.ListSales(c.UserContext(), sales.ListFilter{
		Status: status, From: from, To: to, Limit: page.Limit, Offset: page.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleList(list))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	s, err := h.lifecycle.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleResponse(s))
}

// Update godoc
// @Summary      Editar metadatos de una venta
// @Description  Solo contacto, dirección, repartidor, pagos y fecha. Las líneas no se editan.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.SaleResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.lifecycle.UpdateSale(c.UserContext(), c.Params("id"), sales.SaleUpdate{
		SaleDate:        in.SaleDate,
		CustomerPhone:   in.CustomerPhone,
		CustomerPhone2:  in.CustomerPhone2,
		DeliveryAddress: in.DeliveryAddress,
		Courier:         in.Courier,
		PaymentMethod:   upperPtr(in.PaymentMethod),
		PaymentMethod2:  upperPtr(in.PaymentMethod2),
		Items:           toSaleItems(in.Items),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleResponse(s))
}

func (h *SaleHandler) respond(c *fiber.Ctx, s *entity.Sale, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleResponse(s))
}

// Cancel godoc
// @Summary      Anular venta (restaura el stock)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	s, err := h.lifecycle.CancelSale(c.UserContext(), c.Params("id"), operator(c))
	return h.respond(c, s, err)
}

// Refund godoc
// @Summary      Reembolsar venta (restaura el stock)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Router       /api/sales/{id}/refund [post]
func (h *SaleHandler) Refund(c *fiber.Ctx) error {
	s, err := h.lifecycle.RefundSale(c.UserContext(), c.Params("id"), operator(c))
	return h.respond(c, s, err)
}

// Hold godoc
// @Summary      Poner venta en espera
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Router       /api/sales/{id}/hold [post]
func (h *SaleHandler) Hold(c *fiber.Ctx) error {
	s, err := h.lifecycle.PutOnHold(c.UserContext(), c.Params("id"), operator(c))
	return h.respond(c, s, err)
}

// Validate godoc
// @Summary      Validar venta (queda bloqueada)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Router       /api/sales/{id}/validate [post]
func (h *SaleHandler) Validate(c *fiber.Ctx) error {
	s, err := h.lifecycle.ValidateSale(c.UserContext(), c.Params("id"), operator(c))
	return h.respond(c, s, err)
}

// Delete godoc
// @Summary      Enviar venta a la papelera (restaura el stock si estaba activa o en espera)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	s, err := h.lifecycle.DeleteSale(c.UserContext(), c.Params("id"), operator(c))
	return h.respond(c, s, err)
}

// Ticket godoc
// @Summary      Descargar la ficha de venta en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/ticket.pdf [get]
func (h *SaleHandler) Ticket(c *fiber.Ctx) error {
	pdf, filename, err := h.tickets.DownloadTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// ExportCSV godoc
// @Summary      Exportar ventas en CSV
// @Tags         sales
// @Security     Bearer
// @Produce      text/csv
// @Param        status   query  string  false  "Estado"
// @Param        from     query  string  false  "YYYY-MM-DD"
// @Param        to       query  string  false  "YYYY-MM-DD"
// @Param        charset  query  string  false  "utf-8 | windows-1252"
// @Success      200
// @Router       /api/sales/export.csv [get]
func (h *SaleHandler) ExportCSV(c *fiber.Ctx) error {
	return h.export(c, "ventes.csv", h.exporter.ExportSales)
}

// SummaryCSV godoc
// @Summary      Exportar resumen de ventas en CSV
// @Tags         sales
// @Security     Bearer
// @Produce      text/csv
// @Param        from     query  string  false  "YYYY-MM-DD"
// @Param        to       query  string  false  "YYYY-MM-DD"
// @Param        charset  query  string  false  "utf-8 | windows-1252"
// @Success      200
// @Router       /api/sales/summary.csv [get]
func (h *SaleHandler) SummaryCSV(c *fiber.Ctx) error {
	return h.export(c, "resume_ventes.csv", h.exporter.ExportSummary)
}

type salesExport func(ctx context.Context, w io.Writer, f repository.SaleFilter, charset string) error

func (h *SaleHandler) export(c *fiber.Ctx, filename string, fn salesExport) error {
	charset, err := report.ParseCharset(c.Query("charset"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	filter := repository.SaleFilter{From: from, To: to}
	if st := strings.ToUpper(c.Query("status")); st != "" {
		filter.Statuses = []string{st}
	}
	var buf bytes.Buffer
	if err := fn(c.UserContext(), &buf, filter, charset); err != nil {
		return writeError(c, h.log, err)
	}
	return sendCSV(c, filename, charset, buf.Bytes())
}

// dateRange lee from/to (YYYY-MM-DD o RFC3339). "to" en formato fecha cubre el día completo.
func dateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		return nil, nil, domain.NewValidationError("from", "fecha inválida, use YYYY-MM-DD")
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		return nil, nil, domain.NewValidationError("to", "fecha inválida, use YYYY-MM-DD")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.NewValidationError("to", "anterior a from")
	}
	return from, to, nil
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	u := strings.ToUpper(*s)
	return &u
}
