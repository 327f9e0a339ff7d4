package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// ReportHandler reportes de ventas y datos de gráficos.
type ReportHandler struct {
	uc  *report.ReportUseCase
	log *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.ReportUseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log.Component("http_reports")}
}

// Generate godoc
// @Summary      Generar reporte de ventas
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateReportRequest  true  "DAILY | MONTHLY | YEARLY"
// @Success      201   {object}  dto.ReportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports [post]
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateReportRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Generate(c.UserContext(), in, operator(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar reportes
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReportResponse
// @Router       /api/reports [get]
func (h *ReportHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener reporte
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del reporte"
// @Success      200  {object}  dto.ReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/{id} [get]
func (h *ReportHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar reporte
// @Tags         reports
// @Security     Bearer
// @Param        id   path  string  true  "ID del reporte"
// @Success      204
// @Router       /api/reports/{id} [delete]
func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PDF godoc
// @Summary      Descargar reporte en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del reporte"
// @Success      200
// @Router       /api/reports/{id}/pdf [get]
func (h *ReportHandler) PDF(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.PDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// Charts godoc
// @Summary      Datos para gráficos (ventas activas)
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ChartsResponse
// @Router       /api/reports/charts [get]
func (h *ReportHandler) Charts(c *fiber.Ctx) error {
	out, err := h.uc.Charts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
