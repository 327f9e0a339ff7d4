package http

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// StockHandler expone el libro de stock.
type StockHandler struct {
	ledger   *inventory.StockLedger
	exporter *report.CSVExporter
	log      *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.StockLedger, exporter *report.CSVExporter, log *logger.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, exporter: exporter, log: log.Component("http_stock")}
}

// List godoc
// @Summary      Listar artículos de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockItemResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	items, err := h.ledger.ListItems(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemList(items))
}

// Create godoc
// @Summary      Crear artículo de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockItemRequest  true  "Datos del artículo"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.ledger.AddItem(c.UserContext(), inventory.NewItemInput{
		Name:           in.Name,
		OnHand:         in.OnHand,
		Baseline:       in.Baseline,
		AlertThreshold: in.AlertThreshold,
		Unit:           in.Unit,
		UnitPrice:      in.UnitPrice,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockItemResponse(item))
}

// GetByID godoc
// @Summary      Obtener artículo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.ledger.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// Update godoc
// @Summary      Actualizar metadatos de un artículo
// @Description  on_hand no se edita aquí; usar /adjust.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del artículo"
// @Param        body  body  dto.UpdateStockItemRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.StockItemResponse
// @Router       /api/stock/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.OnHand != nil {
		return writeError(c, h.log, domain.NewValidationError("on_hand", "no editable; use /adjust"))
	}
	item, err := h.ledger.UpdateItem(c.UserContext(), c.Params("id"), inventory.ItemPatch{
		Name:           in.Name,
		Baseline:       in.Baseline,
		AlertThreshold: in.AlertThreshold,
		Unit:           in.Unit,
		UnitPrice:      in.UnitPrice,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// Delete godoc
// @Summary      Enviar artículo a la papelera
// @Tags         stock
// @Security     Bearer
// @Param        id   path  string  true  "ID del artículo"
// @Success      204
// @Router       /api/stock/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.ledger.DeleteItem(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Alerts godoc
// @Summary      Artículos en alerta de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockItemResponse
// @Router       /api/stock/alerts [get]
func (h *StockHandler) Alerts(c *fiber.Ctx) error {
	items, err := h.ledger.LowStockAlerts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemList(items))
}

// Stats godoc
// @Summary      Resumen del inventario
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockStatsResponse
// @Router       /api/stock/stats [get]
func (h *StockHandler) Stats(c *fiber.Ctx) error {
	s, err := h.ledger.Stats(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockStatsResponse{
		TotalItems:      s.TotalItems,
		LowStockCount:   s.LowStockCount,
		OutOfStockCount: s.OutOfStockCount,
		TotalValue:      s.TotalValue,
	})
}

// Replenishment godoc
// @Summary      Sugerencias de reposición
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReplenishmentSuggestionDTO
// @Router       /api/stock/replenishment [get]
func (h *StockHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.ledger.Replenishment(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toReplenishmentList(list))
}

// Availability godoc
// @Summary      Consultar disponibilidad por nombre
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        name      query  string  true  "Nombre del producto"
// @Param        quantity  query  int     true  "Cantidad pedida"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/stock/availability [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		return writeError(c, h.log, domain.NewValidationError("name", "requerido"))
	}
	qty := c.QueryInt("quantity", 1)
	if qty <= 0 {
		return writeError(c, h.log, domain.NewValidationError("quantity", "debe ser un entero positivo"))
	}
	a, err := h.ledger.CheckAvailability(c.UserContext(), name, qty)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AvailabilityResponse{Available: a.Available, OnHand: a.OnHand, Item: toStockItemResponse(a.Item)})
}

// Transactions godoc
// @Summary      Movimientos de stock (más recientes primero)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(50)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.StockTransactionResponse
// @Router       /api/stock/transactions [get]
func (h *StockHandler) Transactions(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	txns, err := h.ledger.ListTransactions(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toTransactionList(txns))
}

// ItemTransactions godoc
// @Summary      Movimientos de un artículo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {array}  dto.StockTransactionResponse
// @Router       /api/stock/{id}/transactions [get]
func (h *StockHandler) ItemTransactions(c *fiber.Ctx) error {
	txns, err := h.ledger.ItemTransactions(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toTransactionList(txns))
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del artículo"
// @Param        body  body  dto.AdjustStockRequest  true  "IN/OUT, cantidad y motivo"
// @Success      200   {object}  dto.StockItemResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.ledger.AdjustItem(c.UserContext(), c.Params("id"), inventory.AdjustInput{
		Kind:     strings.ToUpper(strings.TrimSpace(in.Kind)),
		Quantity: in.Quantity,
		Reason:   in.Reason,
		Operator: operator(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// Reset godoc
// @Summary      Volver al stock base
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.StockItemResponse
// @Router       /api/stock/{id}/reset [post]
func (h *StockHandler) Reset(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.ledger.ResetToBaseline(c.UserContext(), id, operator(c)); err != nil {
		return writeError(c, h.log, err)
	}
	item, err := h.ledger.GetItem(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// Audit godoc
// @Summary      Auditar un artículo contra su libro de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.StockAuditResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/audit [get]
func (h *StockHandler) Audit(c *fiber.Ctx) error {
	r, err := h.ledger.Audit(c.UserContext(), c.Params("id"))
	if err != nil {
		if r != nil && errors.Is(err, domain.ErrInvariantViolation) {
			h.log.Invariant().Err(err).Str("path", c.Path()).Msg("auditoría inconsistente")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Code: "INVARIANT_VIOLATION", Message: "el stock no coincide con sus movimientos", Details: toAuditResponse(r),
			})
		}
		return writeError(c, h.log, err)
	}
	return c.JSON(toAuditResponse(r))
}

// Trash godoc
// @Summary      Papelera de artículos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockItemResponse
// @Router       /api/stock/trash [get]
func (h *StockHandler) Trash(c *fiber.Ctx) error {
	items, err := h.ledger.ListTrash(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemList(items))
}

// Restore godoc
// @Summary      Restaurar artículo de la papelera
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/restore [post]
func (h *StockHandler) Restore(c *fiber.Ctx) error {
	item, err := h.ledger.RestoreItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// Purge godoc
// @Summary      Eliminar definitivamente un artículo de la papelera
// @Tags         stock
// @Security     Bearer
// @Param        id   path  string  true  "ID del artículo"
// @Success      204
// @Router       /api/stock/{id}/purge [post]
func (h *StockHandler) Purge(c *fiber.Ctx) error {
	if err := h.ledger.PurgeItem(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportCSV godoc
// @Summary      Exportar stock en CSV
// @Tags         stock
// @Security     Bearer
// @Produce      text/csv
// @Param        charset  query  string  false  "utf-8 | windows-1252"
// @Success      200
// @Router       /api/stock/export.csv [get]
func (h *StockHandler) ExportCSV(c *fiber.Ctx) error {
	charset, err := report.ParseCharset(c.Query("charset"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	var buf bytes.Buffer
	if err := h.exporter.ExportStock(c.UserContext(), &buf, charset); err != nil {
		return writeError(c, h.log, err)
	}
	return sendCSV(c, "stock.csv", charset, buf.Bytes())
}

func sendCSV(c *fiber.Ctx, filename, charset string, body []byte) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset="+charset)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(body)
}
