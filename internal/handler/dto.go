package handler

// ErrorResponse is the body of every failed request. Raw carries the model
// reply verbatim when the reply could not be used.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Kind       string   `json:"kind"`
	Raw        string   `json:"raw,omitempty"`
	Diagnostic string   `json:"diagnostic,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

type FailureResponse struct {
	ID         int64    `json:"id"`
	EventID    string   `json:"event_id"`
	Task       string   `json:"task"`
	Kind       string   `json:"kind"`
	Raw        string   `json:"raw"`
	Diagnostic string   `json:"diagnostic"`
	Fields     []string `json:"fields"`
	Model      string   `json:"model"`
	OccurredAt string   `json:"occurred_at"`
}

type FailuresResponse struct {
	Failures []FailureResponse `json:"failures"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type UsageResponse struct {
	ApiName      string `json:"api_name"`
	UsageDate    string `json:"usage_date"`
	RequestCount int    `json:"request_count"`
	TokenCount   int64  `json:"token_count"`
}

type UsageListResponse struct {
	Usage []UsageResponse `json:"usage"`
	Days  int             `json:"days"`
}
