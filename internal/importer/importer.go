// Package importer turns extracted drafts into normalized order rows: one
// structured order header plus one order line per product. The source
// email is marked imported only after every insert for it succeeded, so a
// partial failure is retried wholesale on the next run.
package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"orca/internal/models"
)

// OrderStore persists structured orders and their lines
type OrderStore interface {
	ListImportReady(ctx context.Context) ([]models.EmailMessage, error)
	InsertStructuredOrder(ctx context.Context, order *models.StructuredOrder) error
	InsertOrderLine(ctx context.Context, line *models.OrderLine) error
	MarkImported(ctx context.Context, emailID string) error
}

// Importer runs the import stage
type Importer struct {
	store  OrderStore
	logger zerolog.Logger
}

// NewImporter creates a new Importer
func NewImporter(store OrderStore, logger zerolog.Logger) *Importer {
	return &Importer{
		store:  store,
		logger: logger.With().Str("stage", "import").Logger(),
	}
}

// Run imports every email whose draft has been extracted but not yet
// normalized. Returns the number of orders imported plus a summary per
// new order for caller-visible reporting.
func (i *Importer) Run(ctx context.Context) (int, []models.OrderSummary, error) {
	emails, err := i.store.ListImportReady(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("listing import-ready emails failed: %w", err)
	}

	i.logger.Info().Int("ready", len(emails)).Msg("Found emails ready for import")

	imported := 0
	summaries := []models.OrderSummary{}
	for _, email := range emails {
		summary, err := i.importEmail(ctx, &email)
		if err != nil {
			i.logger.Warn().Err(err).Str("email_id", email.ID).Str("subject", email.Subject).Msg("Import skipped; will retry next run")
			continue
		}
		if summary == nil {
			continue
		}
		imported++
		summaries = append(summaries, *summary)
	}

	return imported, summaries, nil
}

// importEmail imports one email. A nil summary without error means the
// email was skipped because it has no draft to import.
func (i *Importer) importEmail(ctx context.Context, email *models.EmailMessage) (*models.OrderSummary, error) {
	if !email.ParsedData.Valid || len(email.ParsedData.JSONText) == 0 {
		i.logger.Warn().Str("email_id", email.ID).Str("subject", email.Subject).Msg("No parsed data on email; skipping")
		return nil, nil
	}

	var draft models.ParsedOrder
	if err := json.Unmarshal(email.ParsedData.JSONText, &draft); err != nil {
		return nil, fmt.Errorf("stored draft is not valid JSON: %w", err)
	}

	// Header fields are copied verbatim from the draft, defaulting to null
	order := &models.StructuredOrder{
		EmailID:      email.ID,
		OrderNumber:  draft.OrderNumber,
		CustomerName: draft.CustomerName,
		OrderDate:    draft.OrderDate,
		SpecialNotes: draft.SpecialNotes,
	}
	if err := i.store.InsertStructuredOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("inserting order header failed: %w", err)
	}

	for idx, product := range draft.Products {
		line := &models.OrderLine{
			OrderID:      order.ID,
			ProductName:  product.Name,
			Quantity:     product.Quantity,
			Unit:         product.Unit,
			DeliveryDate: product.DeliveryDate,
		}
		// A line without its own delivery date inherits the order-level one
		if line.DeliveryDate == nil {
			line.DeliveryDate = draft.DeliveryDate
		}
		if err := i.store.InsertOrderLine(ctx, line); err != nil {
			// Leave structured_imported unset: the whole email is
			// reprocessed next run, at the cost of duplicate partial rows.
			return nil, fmt.Errorf("inserting order line %d failed: %w", idx+1, err)
		}
	}

	if err := i.store.MarkImported(ctx, email.ID); err != nil {
		return nil, fmt.Errorf("marking email imported failed: %w", err)
	}

	i.logger.Info().
		Str("email_id", email.ID).
		Str("order_id", order.ID).
		Int("lines", len(draft.Products)).
		Msg("Order imported")

	return &models.OrderSummary{
		ID:           email.ID,
		Subject:      email.Subject,
		CustomerName: draft.CustomerName,
		OrderDate:    draft.OrderDate,
	}, nil
}
