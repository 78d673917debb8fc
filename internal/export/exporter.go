// Package export pushes single order lines to the task board. A line is
// flagged exported only after its card was created; the reverse failure
// (card created, flag update lost) is surfaced, not hidden, and may leave
// a duplicate card after a retry.
package export

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"orca/internal/database"
	"orca/internal/models"
	"orca/internal/trello"
)

// ErrLineNotFound is returned when the order line id does not resolve.
// The usual cause is an order that was never imported.
var ErrLineNotFound = errors.New("order line not found: was the order imported?")

// LineStore resolves order lines and tracks their export flag
type LineStore interface {
	GetOrderLineDetail(ctx context.Context, lineID string) (*models.OrderLineDetail, error)
	SetLineExported(ctx context.Context, lineID string, exported bool) error
}

// Exporter is the export gate for order lines
type Exporter struct {
	store  LineStore
	board  trello.CardCreator
	logger zerolog.Logger
}

// NewExporter creates a new Exporter
func NewExporter(store LineStore, board trello.CardCreator, logger zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		board:  board,
		logger: logger.With().Str("stage", "export").Logger(),
	}
}

// ExportLine pushes one order line to the task board and flips its
// is_exported flag. The flag is updated by line id only, never by product
// content, and only after the card was created.
func (e *Exporter) ExportLine(ctx context.Context, lineID string) error {
	detail, err := e.store.GetOrderLineDetail(ctx, lineID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w (line id %s)", ErrLineNotFound, lineID)
		}
		return fmt.Errorf("failed to load order line: %w", err)
	}

	name, description := renderCard(detail)
	if err := e.board.CreateCard(ctx, name, description); err != nil {
		// Flag untouched: the export stays safe to retry
		return fmt.Errorf("card creation failed: %w", err)
	}

	if err := e.store.SetLineExported(ctx, lineID, true); err != nil {
		e.logger.Error().Err(err).Str("line_id", lineID).Msg("Card created but export flag not updated; a retry will duplicate the card")
		return fmt.Errorf("card created but export flag update failed: %w", err)
	}

	e.logger.Info().Str("line_id", lineID).Str("card", name).Msg("Order line exported")

	return nil
}

// ResetLine clears the export flag of one line, the operator-triggered undo
func (e *Exporter) ResetLine(ctx context.Context, lineID string) error {
	if err := e.store.SetLineExported(ctx, lineID, false); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w (line id %s)", ErrLineNotFound, lineID)
		}
		return fmt.Errorf("failed to reset export flag: %w", err)
	}

	e.logger.Info().Str("line_id", lineID).Msg("Export flag reset")

	return nil
}

// renderCard renders the card title and description from a line and its
// order header. Informational only; nothing downstream parses it.
func renderCard(detail *models.OrderLineDetail) (string, string) {
	caser := cases.Title(language.English)
	customer := valueOr(detail.CustomerName, "Unknown Customer")
	product := valueOr(detail.ProductName, "Unknown Product")
	name := fmt.Sprintf("Order %s %s", caser.String(customer), caser.String(product))

	quantity := ""
	if detail.Quantity != nil {
		quantity = strconv.FormatFloat(*detail.Quantity, 'f', -1, 64)
	}
	if detail.Unit != nil {
		quantity = strings.TrimSpace(quantity + " " + *detail.Unit)
	}

	description := fmt.Sprintf(`Order Line ID: %s
Product Name: %s
Quantity: %s
Delivery Date: %s
Customer Name: %s
Sender: %s
Order Date: %s
Special Notes: %s`,
		detail.ID,
		product,
		quantity,
		valueOr(detail.DeliveryDate, ""),
		customer,
		valueOr(detail.SenderEmail, ""),
		valueOr(detail.OrderDate, ""),
		valueOr(detail.SpecialNotes, ""))

	return name, description
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
