package handlers

import (
	"context"
	"errors"
	"net/http"

	"orca/internal/export"
	"orca/internal/models"

	"github.com/labstack/echo/v4"
)

// LineExporter is the export gate contract the handlers depend on
type LineExporter interface {
	ExportLine(ctx context.Context, lineID string) error
	ResetLine(ctx context.Context, lineID string) error
}

// ExportLineHandler pushes one order line to the task board
// @Summary Export an order line
// @Description Creates a task-board card for the order line and marks it exported
// @Tags Export
// @Accept json
// @Produce json
// @Param request body models.ExportRequest true "Order line to export"
// @Success 200 {object} models.ExportResponse
// @Failure 400 {object} models.ExportResponse
// @Failure 404 {object} models.ExportResponse
// @Failure 502 {object} models.ExportResponse
// @Router /api/export-line [post]
func ExportLineHandler(exporter LineExporter) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ExportRequest
		if err := c.Bind(&req); err != nil || req.OrderLineID == "" {
			return c.JSON(http.StatusBadRequest, models.ExportResponse{
				Error: "order_line_id is required",
			})
		}

		if err := exporter.ExportLine(c.Request().Context(), req.OrderLineID); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, export.ErrLineNotFound) {
				status = http.StatusNotFound
			}
			return c.JSON(status, models.ExportResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.ExportResponse{
			Success: true,
			Message: "Order line exported",
		})
	}
}

// ResetExportHandler clears the export flag of one order line
// @Summary Reset an order line's export flag
// @Description Operator undo: marks the order line as not exported
// @Tags Export
// @Accept json
// @Produce json
// @Param request body models.ExportRequest true "Order line to reset"
// @Success 200 {object} models.ExportResponse
// @Failure 400 {object} models.ExportResponse
// @Failure 404 {object} models.ExportResponse
// @Router /api/export-line/reset [post]
func ResetExportHandler(exporter LineExporter) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ExportRequest
		if err := c.Bind(&req); err != nil || req.OrderLineID == "" {
			return c.JSON(http.StatusBadRequest, models.ExportResponse{
				Error: "order_line_id is required",
			})
		}

		if err := exporter.ResetLine(c.Request().Context(), req.OrderLineID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, export.ErrLineNotFound) {
				status = http.StatusNotFound
			}
			return c.JSON(status, models.ExportResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.ExportResponse{
			Success: true,
			Message: "Export flag reset",
		})
	}
}
