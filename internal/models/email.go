package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// EmailMessage is the canonical record for one inbound order email.
// It carries the extraction state flags: llm_processed flips once the
// draft has been extracted, structured_imported once the draft has been
// turned into normalized order rows. Both are monotonic.
type EmailMessage struct {
	ID                 string             `db:"id" json:"id"`
	Subject            string             `db:"subject" json:"subject"`
	SenderEmail        string             `db:"sender_email" json:"sender_email"`
	SenderName         string             `db:"sender_name" json:"sender_name"`
	EmailBody          string             `db:"email_body" json:"email_body"`
	EmailBodyHTML      *string            `db:"email_body_html" json:"email_body_html,omitempty"`
	ReturnPath         *string            `db:"return_path" json:"return_path,omitempty"`
	ClientID           *string            `db:"client_id" json:"client_id,omitempty"`
	SentAt             time.Time          `db:"sent_at" json:"sent_at"`
	Status             string             `db:"status" json:"status"`
	ParsedData         types.NullJSONText `db:"parsed_data" json:"parsed_data,omitempty"`
	LLMProcessed       bool               `db:"llm_processed" json:"llm_processed"`
	StructuredImported bool               `db:"structured_imported" json:"structured_imported"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	DeletedAt          *time.Time         `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Body returns the body used for extraction: HTML when retained, plain
// text as fallback
func (e *EmailMessage) Body() string {
	if e.EmailBodyHTML != nil && *e.EmailBodyHTML != "" {
		return *e.EmailBodyHTML
	}
	return e.EmailBody
}

// StatusRaw is the status a freshly ingested email starts in
const StatusRaw = "raw"

// Client represents a known order sender, matched by the Return-Path
// address of incoming mail
type Client struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	ReturnPath string     `db:"return_path" json:"return_path"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
