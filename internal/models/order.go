package models

import "time"

// ParsedOrder is the draft shape the language model is asked to return.
// Every field is optional; the importer validates at its own boundary and
// never trusts the draft to be complete.
type ParsedOrder struct {
	OrderNumber  *string         `json:"order_number"`
	CustomerName *string         `json:"customer_name"`
	OrderDate    *string         `json:"order_date"`
	DeliveryDate *string         `json:"delivery_date,omitempty"`
	SpecialNotes *string         `json:"special_notes"`
	Products     []ParsedProduct `json:"products"`
}

// ParsedProduct is one product entry inside a draft
type ParsedProduct struct {
	Name         *string  `json:"name"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	DeliveryDate *string  `json:"delivery_date"`
}

// StructuredOrder is the normalized order header derived from a draft
type StructuredOrder struct {
	ID           string     `db:"id" json:"id"`
	EmailID      string     `db:"email_id" json:"email_id"`
	OrderNumber  *string    `db:"order_number" json:"order_number,omitempty"`
	CustomerName *string    `db:"customer_name" json:"customer_name,omitempty"`
	OrderDate    *string    `db:"order_date" json:"order_date,omitempty"`
	SpecialNotes *string    `db:"special_notes" json:"special_notes,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// OrderLine is one product line under a structured order. IsExported is set
// once the line has been pushed to the task board; an operator undo may
// reset it.
type OrderLine struct {
	ID           string     `db:"id" json:"id"`
	OrderID      string     `db:"order_id" json:"order_id"`
	ProductName  *string    `db:"product_name" json:"product_name,omitempty"`
	Quantity     *float64   `db:"quantity" json:"quantity,omitempty"`
	Unit         *string    `db:"unit" json:"unit,omitempty"`
	DeliveryDate *string    `db:"delivery_date" json:"delivery_date,omitempty"`
	IsExported   bool       `db:"is_exported" json:"is_exported"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// OrderLineDetail is an order line joined with its parent order header and
// the originating sender, as needed to render a task-board card
type OrderLineDetail struct {
	ID           string   `db:"id" json:"id"`
	ProductName  *string  `db:"product_name" json:"product_name,omitempty"`
	Quantity     *float64 `db:"quantity" json:"quantity,omitempty"`
	Unit         *string  `db:"unit" json:"unit,omitempty"`
	DeliveryDate *string  `db:"delivery_date" json:"delivery_date,omitempty"`
	IsExported   bool     `db:"is_exported" json:"is_exported"`
	CustomerName *string  `db:"customer_name" json:"customer_name,omitempty"`
	OrderDate    *string  `db:"order_date" json:"order_date,omitempty"`
	SpecialNotes *string  `db:"special_notes" json:"special_notes,omitempty"`
	SenderEmail  *string  `db:"sender_email" json:"sender_email,omitempty"`
}

// OrderSummary is the caller-visible report entry for one imported order
type OrderSummary struct {
	ID           string  `json:"id"`
	Subject      string  `json:"subject"`
	CustomerName *string `json:"customer_name,omitempty"`
	OrderDate    *string `json:"order_date,omitempty"`
}
