package model

import "time"

// ExtractionFailure is a persisted diagnostics event: a model reply that could
// not be turned into the task's JSON, or an upstream call that failed.
type ExtractionFailure struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	Task       string    `json:"task"`
	Kind       string    `json:"kind"`
	Raw        string    `json:"raw,omitempty"`
	Diagnostic string    `json:"diagnostic"`
	Fields     []string  `json:"fields,omitempty"`
	Model      string    `json:"model,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type ApiUsage struct {
	ID           int64     `json:"id"`
	ApiName      string    `json:"api_name"`
	UsageDate    time.Time `json:"usage_date"`
	RequestCount int       `json:"request_count"`
	TokenCount   int64     `json:"token_count"`
}
