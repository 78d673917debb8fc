package handlers

import (
	"context"
	"net/http"

	"orca/internal/models"
	"orca/internal/pipeline"

	"github.com/labstack/echo/v4"
)

// PipelineRunner runs the batch pipeline and reports a summary
type PipelineRunner interface {
	Run(ctx context.Context) pipeline.Summary
}

// ProcessAllHandler runs the full ingest, extract and import pipeline
// @Summary Process all pending emails
// @Description Fetches unseen emails, extracts order drafts and imports structured orders
// @Tags Pipeline
// @Produce json
// @Success 200 {object} models.PipelineResponse
// @Router /api/process-all [post]
func ProcessAllHandler(runner PipelineRunner) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary := runner.Run(c.Request().Context())

		response := models.PipelineResponse{
			Status:         "done",
			EmailsFound:    summary.EmailsFound,
			EmailsParsed:   summary.EmailsParsed,
			OrdersImported: summary.OrdersImported,
			NewOrders:      summary.NewOrders,
		}
		if summary.Err != nil {
			response.Status = "error"
			response.Error = summary.Err.Error()
		}

		// The caller always receives the best-effort summary, error included
		return c.JSON(http.StatusOK, response)
	}
}
