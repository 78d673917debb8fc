package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// PipelineResponse is the aggregated result of one pipeline run
// @Description Pipeline run summary
type PipelineResponse struct {
	Status         string         `json:"status" example:"done"`       // done or error
	EmailsFound    int            `json:"emails_found" example:"2"`    // New emails ingested from the mailbox
	EmailsParsed   int            `json:"emails_parsed" example:"2"`   // Emails the model extracted a draft from
	OrdersImported int            `json:"orders_imported" example:"2"` // Drafts turned into structured orders
	NewOrders      []OrderSummary `json:"new_orders,omitempty"`        // Summaries of newly imported orders
	Error          string         `json:"error,omitempty" example:""`  // Error message if a stage failed
}

// ExportRequest is the request body for exporting one order line
// @Description Export order line request payload
type ExportRequest struct {
	OrderLineID string `json:"order_line_id" example:"71874245-d3f2-420e-8128-811e027a497e"` // Order line to push
}

// ExportResponse is the result of an export or reset operation
// @Description Export order line response payload
type ExportResponse struct {
	Success bool   `json:"success" example:"true"`     // Whether the operation succeeded
	Message string `json:"message,omitempty"`          // Human-readable result
	Error   string `json:"error,omitempty" example:""` // Error message if any
}

// ClientInfo is the public subset of a client row
type ClientInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClientsResponse is the list-clients payload
// @Description Clients list response
type ClientsResponse struct {
	Clients []ClientInfo `json:"clients"`
}
