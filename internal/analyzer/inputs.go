package analyzer

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"git.home.luguber.info/inful/errdetective/internal/errors"
)

// Input is the closed set of shapes the analyzer accepts. Use FromValue to
// map arbitrary Go values onto it.
type Input interface {
	// Kind names the variant for logs and metrics.
	Kind() string
	isInput()
}

// ClassificationInput is the normalized form. It is also what the service
// accepts as a JSON object.
type ClassificationInput struct {
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	VendorCode string            `json:"vendor_code,omitempty"`
	Endpoint   string            `json:"endpoint,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

// DictInput is a loosely typed error record such as a decoded JSON object.
// Recognized keys: status_code (int, float or digit string), message,
// headers, details, request_id, error_code and endpoint.
type DictInput struct {
	Data map[string]any
	// Endpoint overrides Data["endpoint"] when set.
	Endpoint string
}

// ResponseInput is a raw HTTP response: status, headers and body text.
type ResponseInput struct {
	StatusCode int
	Headers    map[string]string
	Text       string
	Endpoint   string
}

// V3ExceptionInput mirrors the fields of a v3 SDK ApiException.
type V3ExceptionInput struct {
	Status   int
	Reason   string
	Headers  map[string]string
	Body     []byte
	Endpoint string
}

// V2ErrorDetail is one entry of a v2 error's details list.
type V2ErrorDetail struct {
	Message  string `json:"message,omitempty"`
	Property string `json:"property,omitempty"`
}

// V2ErrorBody is the error object carried by a v2 SDK exception.
type V2ErrorBody struct {
	Message string
	Details []V2ErrorDetail
}

// V2ExceptionInput mirrors the fields of a v2 SDK LineBotApiError.
type V2ExceptionInput struct {
	StatusCode        int
	Headers           map[string]string
	RequestID         string
	AcceptedRequestID string
	Error             *V2ErrorBody
	Endpoint          string
}

// SignatureErrorInput is a webhook signature verification failure. It
// always classifies as INVALID_SIGNATURE.
type SignatureErrorInput struct {
	Message string
}

// LogTextInput is free-form log text, parsed before classification.
type LogTextInput struct {
	Text     string
	Endpoint string
}

func (ClassificationInput) Kind() string { return "classification" }
func (DictInput) Kind() string           { return "dict" }
func (ResponseInput) Kind() string       { return "response" }
func (V3ExceptionInput) Kind() string    { return "v3_exception" }
func (V2ExceptionInput) Kind() string    { return "v2_exception" }
func (SignatureErrorInput) Kind() string { return "signature_error" }
func (LogTextInput) Kind() string        { return "log_text" }

func (ClassificationInput) isInput() {}
func (DictInput) isInput()           {}
func (ResponseInput) isInput()       {}
func (V3ExceptionInput) isInput()    {}
func (V2ExceptionInput) isInput()    {}
func (SignatureErrorInput) isInput() {}
func (LogTextInput) isInput()        {}

// maxResponseBody bounds how much of an *http.Response body is read.
const maxResponseBody = 1 << 20

// FromValue maps a Go value onto an Input variant:
//
//   - an Input is returned unchanged
//   - map[string]any with a string "log" key becomes LogTextInput, any other map a DictInput
//   - string and []byte become LogTextInput
//   - *http.Response becomes ResponseInput; its body is read and replaced
//
// Anything else is an unsupported_input error.
func FromValue(v any) (Input, error) {
	switch t := v.(type) {
	case nil:
		return nil, errors.UnsupportedInput(v)
	case Input:
		return t, nil
	case map[string]any:
		if text, ok := t["log"].(string); ok {
			endpoint, _ := t["endpoint"].(string)
			return LogTextInput{Text: text, Endpoint: endpoint}, nil
		}
		return DictInput{Data: t}, nil
	case string:
		return LogTextInput{Text: t}, nil
	case []byte:
		return LogTextInput{Text: string(t)}, nil
	case *http.Response:
		if t == nil {
			return nil, errors.UnsupportedInput(v)
		}
		return responseFromHTTP(t)
	default:
		return nil, errors.UnsupportedInput(v)
	}
}

func responseFromHTTP(resp *http.Response) (Input, error) {
	in := ResponseInput{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeader(resp.Header),
	}
	if resp.Body == nil {
		return in, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, errors.InvalidField("body", fmt.Sprintf("read response body: %v", err))
	}
	in.Text = string(body)
	return in, nil
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
