package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"orca/internal/models"
)

// DraftStore persists extracted drafts against their source emails
type DraftStore interface {
	ListUnparsedEmails(ctx context.Context) ([]models.EmailMessage, error)
	SaveParsedData(ctx context.Context, emailID string, parsed json.RawMessage) error
}

// Extractor runs the extraction stage: every email not yet llm_processed
// gets one completion attempt. A failed email keeps its flag unset and is
// retried on the next run.
type Extractor struct {
	store  DraftStore
	llm    Completer
	logger zerolog.Logger
	now    func() time.Time
}

// NewExtractor creates a new Extractor
func NewExtractor(store DraftStore, llm Completer, logger zerolog.Logger) *Extractor {
	return &Extractor{
		store:  store,
		llm:    llm,
		logger: logger.With().Str("stage", "extract").Logger(),
		now:    time.Now,
	}
}

// Run extracts a draft from every unparsed email. Returns the number of
// emails successfully parsed.
func (e *Extractor) Run(ctx context.Context) (int, error) {
	emails, err := e.store.ListUnparsedEmails(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing unparsed emails failed: %w", err)
	}

	e.logger.Info().Int("unparsed", len(emails)).Msg("Found emails awaiting extraction")

	parsed := 0
	for _, email := range emails {
		if err := e.processEmail(ctx, &email); err != nil {
			e.logger.Warn().Err(err).Str("email_id", email.ID).Str("subject", email.Subject).Msg("Extraction skipped; will retry next run")
			continue
		}
		parsed++
	}

	return parsed, nil
}

func (e *Extractor) processEmail(ctx context.Context, email *models.EmailMessage) error {
	prompt := BuildPrompt(email.Body(), email.SentAt, e.now())

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	cleaned := CleanJSONOutput(raw)

	// The cleaned text must be a JSON object in the draft shape; anything
	// else leaves the email unprocessed.
	var draft models.ParsedOrder
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return fmt.Errorf("model output is not valid draft JSON: %w", err)
	}

	if err := e.store.SaveParsedData(ctx, email.ID, json.RawMessage(cleaned)); err != nil {
		return fmt.Errorf("saving draft failed: %w", err)
	}

	e.logger.Info().Str("email_id", email.ID).Str("subject", email.Subject).Int("products", len(draft.Products)).Msg("Draft extracted")

	return nil
}
