package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"orca/internal/models"
)

// ErrNotFound is returned when a requested row does not exist (or is soft-deleted)
var ErrNotFound = errors.New("record not found")

// Store provides typed access to the order tables. All reads filter
// soft-deleted rows (deleted_at IS NULL).
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new store around an open database connection
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// CreateTables creates the order tables in the database
func (s *Store) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(36) PRIMARY KEY,
			name TEXT NOT NULL,
			return_path TEXT NOT NULL,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id VARCHAR(36) PRIMARY KEY,
			subject TEXT NOT NULL DEFAULT '',
			sender_email TEXT NOT NULL DEFAULT '',
			sender_name TEXT NOT NULL DEFAULT '',
			email_body TEXT NOT NULL DEFAULT '',
			email_body_html TEXT,
			return_path TEXT,
			client_id VARCHAR(36),
			sent_at TIMESTAMP NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'raw',
			parsed_data TEXT,
			llm_processed BOOLEAN NOT NULL DEFAULT FALSE,
			structured_imported BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_llm_processed ON emails(llm_processed)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_structured_imported ON emails(structured_imported)`,
		`CREATE TABLE IF NOT EXISTS orders_structured (
			id VARCHAR(36) PRIMARY KEY,
			email_id VARCHAR(36) NOT NULL,
			order_number TEXT,
			customer_name TEXT,
			order_date TEXT,
			special_notes TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			id VARCHAR(36) PRIMARY KEY,
			order_id VARCHAR(36) NOT NULL,
			product_name TEXT,
			quantity NUMERIC,
			unit TEXT,
			delivery_date TEXT,
			is_exported BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// GetClientByReturnPath looks up a non-deleted client by its return-path
// address. A missing client is not an error: it returns (nil, nil).
func (s *Store) GetClientByReturnPath(ctx context.Context, returnPath string) (*models.Client, error) {
	if returnPath == "" {
		return nil, nil
	}

	var client models.Client
	query := `SELECT id, name, return_path, deleted_at FROM clients WHERE return_path = $1 AND deleted_at IS NULL`
	err := s.db.GetContext(ctx, &client, query, returnPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up client by return path: %w", err)
	}

	return &client, nil
}

// ListClients returns all non-deleted clients
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	query := `SELECT id, name, return_path, deleted_at FROM clients WHERE deleted_at IS NULL ORDER BY name`
	if err := s.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	// Ensure we return an empty slice, not nil
	if clients == nil {
		clients = []models.Client{}
	}

	return clients, nil
}

// InsertEmail stores a freshly normalized email. The id is generated here
// and written back to the passed record.
func (s *Store) InsertEmail(ctx context.Context, email *models.EmailMessage) error {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.Status == "" {
		email.Status = models.StatusRaw
	}
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO emails (id, subject, sender_email, sender_name, email_body, email_body_html,
			return_path, client_id, sent_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		email.ID, email.Subject, email.SenderEmail, email.SenderName,
		email.EmailBody, email.EmailBodyHTML, email.ReturnPath, email.ClientID,
		email.SentAt, email.Status, email.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}

	return nil
}

// ListUnparsedEmails returns emails the model has not extracted a draft from yet
func (s *Store) ListUnparsedEmails(ctx context.Context) ([]models.EmailMessage, error) {
	var emails []models.EmailMessage
	query := `
		SELECT id, subject, sender_email, sender_name, email_body, email_body_html,
			return_path, client_id, sent_at, status, parsed_data, llm_processed,
			structured_imported, created_at, deleted_at
		FROM emails
		WHERE llm_processed = FALSE AND deleted_at IS NULL
		ORDER BY created_at
	`
	if err := s.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, fmt.Errorf("failed to list unparsed emails: %w", err)
	}

	return emails, nil
}

// SaveParsedData stores the extracted draft and flips llm_processed. The
// flag is monotonic: it is never reset by the pipeline.
func (s *Store) SaveParsedData(ctx context.Context, emailID string, parsed json.RawMessage) error {
	query := `UPDATE emails SET parsed_data = $1, llm_processed = TRUE WHERE id = $2 AND deleted_at IS NULL`
	_, err := s.db.ExecContext(ctx, query, string(parsed), emailID)
	if err != nil {
		return fmt.Errorf("failed to save parsed data: %w", err)
	}

	return nil
}

// ListImportReady returns emails with an extracted draft that have not been
// turned into structured orders yet
func (s *Store) ListImportReady(ctx context.Context) ([]models.EmailMessage, error) {
	var emails []models.EmailMessage
	query := `
		SELECT id, subject, sender_email, sender_name, email_body, email_body_html,
			return_path, client_id, sent_at, status, parsed_data, llm_processed,
			structured_imported, created_at, deleted_at
		FROM emails
		WHERE llm_processed = TRUE AND structured_imported = FALSE AND deleted_at IS NULL
		ORDER BY created_at
	`
	if err := s.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, fmt.Errorf("failed to list import-ready emails: %w", err)
	}

	return emails, nil
}

// InsertStructuredOrder stores a normalized order header and returns its id
func (s *Store) InsertStructuredOrder(ctx context.Context, order *models.StructuredOrder) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO orders_structured (id, email_id, order_number, customer_name, order_date, special_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		order.ID, order.EmailID, order.OrderNumber, order.CustomerName,
		order.OrderDate, order.SpecialNotes, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert structured order: %w", err)
	}

	return nil
}

// InsertOrderLine stores one product line under a structured order
func (s *Store) InsertOrderLine(ctx context.Context, line *models.OrderLine) error {
	if line.ID == "" {
		line.ID = uuid.NewString()
	}

	query := `
		INSERT INTO order_lines (id, order_id, product_name, quantity, unit, delivery_date, is_exported)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`
	_, err := s.db.ExecContext(ctx, query,
		line.ID, line.OrderID, line.ProductName, line.Quantity, line.Unit, line.DeliveryDate)
	if err != nil {
		return fmt.Errorf("failed to insert order line: %w", err)
	}

	return nil
}

// MarkImported flips structured_imported on the source email. Called only
// after every header and line insert for that email succeeded.
func (s *Store) MarkImported(ctx context.Context, emailID string) error {
	query := `UPDATE emails SET structured_imported = TRUE WHERE id = $1 AND deleted_at IS NULL`
	_, err := s.db.ExecContext(ctx, query, emailID)
	if err != nil {
		return fmt.Errorf("failed to mark email imported: %w", err)
	}

	return nil
}

// GetOrderLineDetail fetches one order line joined with its parent order
// header and the originating sender. Returns ErrNotFound when the line does
// not exist or is soft-deleted.
func (s *Store) GetOrderLineDetail(ctx context.Context, lineID string) (*models.OrderLineDetail, error) {
	var detail models.OrderLineDetail
	query := `
		SELECT ol.id, ol.product_name, ol.quantity, ol.unit, ol.delivery_date, ol.is_exported,
			os.customer_name, os.order_date, os.special_notes, e.sender_email
		FROM order_lines ol
		JOIN orders_structured os ON os.id = ol.order_id AND os.deleted_at IS NULL
		JOIN emails e ON e.id = os.email_id
		WHERE ol.id = $1 AND ol.deleted_at IS NULL
	`
	err := s.db.GetContext(ctx, &detail, query, lineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order line: %w", err)
	}

	return &detail, nil
}

// SetLineExported updates the is_exported flag for one order line. The
// lookup is by id only; matching by product content is ambiguous when an
// order contains duplicate lines.
func (s *Store) SetLineExported(ctx context.Context, lineID string, exported bool) error {
	query := `UPDATE order_lines SET is_exported = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, exported, lineID)
	if err != nil {
		return fmt.Errorf("failed to update export flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return ErrNotFound
	}

	return nil
}
