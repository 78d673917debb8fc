// Package ingest turns unseen mailbox messages into stored canonical email
// records. It is the first pipeline stage: each message is normalized,
// stored with status "raw", and then marked seen on the server.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"orca/internal/mailbox"
	"orca/internal/models"
)

// ClientResolver resolves a return-path address to a known client
type ClientResolver interface {
	GetClientByReturnPath(ctx context.Context, returnPath string) (*models.Client, error)
}

// EmailStore persists canonical email records
type EmailStore interface {
	ClientResolver
	InsertEmail(ctx context.Context, email *models.EmailMessage) error
}

// Options carries the mailbox coordinates for one ingest run
type Options struct {
	Addr     string
	User     string
	Password string
	Mailbox  string
}

// Normalizer fetches unseen messages and stores them as canonical records
type Normalizer struct {
	mailbox mailbox.Client
	store   EmailStore
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(mb mailbox.Client, store EmailStore, opts Options, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		mailbox: mb,
		store:   store,
		opts:    opts,
		logger:  logger.With().Str("stage", "ingest").Logger(),
		now:     time.Now,
	}
}

// Run fetches all unseen messages, normalizes and stores each one, and
// marks stored messages seen. A failure on one message never blocks the
// rest of the batch. Returns the number of messages stored.
func (n *Normalizer) Run(ctx context.Context) (int, error) {
	if err := n.mailbox.Connect(n.opts.Addr); err != nil {
		return 0, fmt.Errorf("mailbox connect failed: %w", err)
	}
	defer func() {
		if err := n.mailbox.Logout(); err != nil {
			n.logger.Warn().Err(err).Msg("mailbox logout failed")
		}
	}()

	if err := n.mailbox.Login(n.opts.User, n.opts.Password); err != nil {
		return 0, fmt.Errorf("mailbox login failed: %w", err)
	}
	if err := n.mailbox.SelectMailbox(n.opts.Mailbox); err != nil {
		return 0, fmt.Errorf("mailbox select failed: %w", err)
	}

	uids, err := n.mailbox.ListUnseenUIDs()
	if err != nil {
		return 0, fmt.Errorf("unseen search failed: %w", err)
	}

	n.logger.Info().Int("unseen", len(uids)).Msg("Fetched unseen message list")

	stored := 0
	for _, uid := range uids {
		if err := n.processMessage(ctx, uid); err != nil {
			n.logger.Warn().Err(err).Uint32("uid", uid).Msg("Skipping message")
			continue
		}
		stored++
	}

	return stored, nil
}

func (n *Normalizer) processMessage(ctx context.Context, uid uint32) error {
	raw, err := n.mailbox.FetchMessage(uid)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	parsed, err := ParseMessage(raw, n.now)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	// Resolve the sending client from the Return-Path address. An unknown
	// or missing client is never an error.
	var clientID *string
	if client, err := n.store.GetClientByReturnPath(ctx, parsed.ReturnPath); err != nil {
		n.logger.Warn().Err(err).Str("return_path", parsed.ReturnPath).Msg("Client lookup failed")
	} else if client != nil {
		clientID = &client.ID
		n.logger.Info().Str("return_path", parsed.ReturnPath).Str("client_id", client.ID).Msg("Client resolved")
	} else if parsed.ReturnPath != "" {
		n.logger.Warn().Str("return_path", parsed.ReturnPath).Msg("No client found for return path")
	}

	email := &models.EmailMessage{
		Subject:     parsed.Subject,
		SenderEmail: parsed.SenderEmail,
		SenderName:  parsed.SenderName,
		EmailBody:   parsed.BodyPlain,
		ClientID:    clientID,
		SentAt:      parsed.SentAt,
	}
	if parsed.BodyHTML != "" {
		email.EmailBodyHTML = &parsed.BodyHTML
	}
	if parsed.ReturnPath != "" {
		email.ReturnPath = &parsed.ReturnPath
	}

	if err := n.store.InsertEmail(ctx, email); err != nil {
		return fmt.Errorf("store failed: %w", err)
	}

	n.logger.Info().
		Str("email_id", email.ID).
		Str("subject", email.Subject).
		Str("sender", email.SenderEmail).
		Time("sent_at", email.SentAt).
		Bool("html", email.EmailBodyHTML != nil).
		Msg("Email stored")

	// Marking seen is the de-duplication mechanism: only after a
	// successful store, so a failed message is re-fetched next run.
	if err := n.mailbox.MarkSeen(uid); err != nil {
		n.logger.Error().Err(err).Uint32("uid", uid).Msg("Failed to mark message seen; it may be ingested twice")
	}

	return nil
}
