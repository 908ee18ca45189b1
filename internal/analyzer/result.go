package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/errdetective/internal/engine"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

// Result is a complete classification. It is built once by the Assembler;
// its maps and slices are owned by the Result.
type Result struct {
	StatusCode        int
	Message           string
	Category          taxonomy.Category
	Severity          taxonomy.Severity
	IsRetryable       bool
	Description       string
	RecommendedAction string
	RetryAfter        *int // seconds; nil when not retryable
	RequestID         string
	AcceptedRequestID string
	Headers           map[string]string
	DocumentationURL  string
	Solutions         []string
	EndpointCode      string
	Endpoint          string
	Details           []any
	Tier              engine.Tier
	InputKind         string
	RawInput          map[string]any
}

type resultJSON struct {
	Basic    basicJSON    `json:"basic"`
	Analysis analysisJSON `json:"analysis"`
	Guidance guidanceJSON `json:"guidance"`
	RawData  rawDataJSON  `json:"raw_data"`
}

type basicJSON struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code,omitempty"`
	Message    string `json:"message"`
	Endpoint   string `json:"endpoint,omitempty"`
}

type analysisJSON struct {
	Category    taxonomy.Category `json:"category"`
	Severity    taxonomy.Severity `json:"severity"`
	IsRetryable bool              `json:"is_retryable"`
	Tier        engine.Tier       `json:"tier"`
}

type guidanceJSON struct {
	Description       string   `json:"description"`
	RecommendedAction string   `json:"recommended_action"`
	RetryAfter        *int     `json:"retry_after"`
	DocumentationURL  string   `json:"documentation_url"`
	Solutions         []string `json:"solutions,omitempty"`
}

type rawDataJSON struct {
	RequestID         string            `json:"request_id,omitempty"`
	AcceptedRequestID string            `json:"accepted_request_id,omitempty"`
	Headers           map[string]string `json:"headers"`
	Details           []any             `json:"details"`
	InputKind         string            `json:"input_kind,omitempty"`
	Raw               map[string]any    `json:"raw_error"`
}

// MarshalJSON renders the result grouped into basic, analysis, guidance and
// raw_data sections.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Basic: basicJSON{
			StatusCode: r.StatusCode,
			ErrorCode:  r.EndpointCode,
			Message:    r.Message,
			Endpoint:   r.Endpoint,
		},
		Analysis: analysisJSON{
			Category:    r.Category,
			Severity:    r.Severity,
			IsRetryable: r.IsRetryable,
			Tier:        r.Tier,
		},
		Guidance: guidanceJSON{
			Description:       r.Description,
			RecommendedAction: r.RecommendedAction,
			RetryAfter:        r.RetryAfter,
			DocumentationURL:  r.DocumentationURL,
			Solutions:         r.Solutions,
		},
		RawData: rawDataJSON{
			RequestID:         r.RequestID,
			AcceptedRequestID: r.AcceptedRequestID,
			Headers:           r.Headers,
			Details:           r.Details,
			InputKind:         r.InputKind,
			Raw:               r.RawInput,
		},
	}
	if out.RawData.Headers == nil {
		out.RawData.Headers = map[string]string{}
	}
	if out.RawData.Details == nil {
		out.RawData.Details = []any{}
	}
	if out.RawData.Raw == nil {
		out.RawData.Raw = map[string]any{}
	}
	return json.Marshal(out)
}

// String is a short multi-line summary for terminals and logs.
func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %d %s", r.Category, r.StatusCode, r.Message)
	retry := "not retryable"
	if r.IsRetryable {
		retry = "retryable"
		if r.RetryAfter != nil {
			retry = fmt.Sprintf("retry after %ds", *r.RetryAfter)
		}
	}
	fmt.Fprintf(&b, " (%s, %s)\n", r.Severity, retry)
	if r.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", r.Description)
	}
	if r.RecommendedAction != "" {
		fmt.Fprintf(&b, "Action: %s\n", r.RecommendedAction)
	}
	for _, s := range r.Solutions {
		fmt.Fprintf(&b, "  - %s\n", s)
	}
	if r.DocumentationURL != "" {
		fmt.Fprintf(&b, "Docs: %s\n", r.DocumentationURL)
	}
	if r.RequestID != "" {
		fmt.Fprintf(&b, "Request ID: %s\n", r.RequestID)
	}
	return strings.TrimRight(b.String(), "\n")
}
