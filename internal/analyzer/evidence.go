package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/errdetective/internal/engine"
	"git.home.luguber.info/inful/errdetective/internal/logparse"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

// Evidence is what an input variant contributes to a classification. The
// Assembler turns it into a Result.
type Evidence struct {
	Kind              string
	StatusCode        int
	Message           string
	VendorCode        string
	Endpoint          taxonomy.EndpointKey
	EndpointID        string
	Headers           map[string]string
	RequestID         string
	AcceptedRequestID string
	Details           []any
	Raw               map[string]any

	// Decision, when set, bypasses the engine.
	Decision *engine.Decision
	// Description, when set, replaces the resolved description.
	Description string
}

const parseFailedDescription = "failed to parse error log"

func (a *Analyzer) collect(in Input) Evidence {
	switch t := in.(type) {
	case ClassificationInput:
		return classificationEvidence(t)
	case *ClassificationInput:
		return classificationEvidence(*t)
	case DictInput:
		return dictEvidence(t)
	case *DictInput:
		return dictEvidence(*t)
	case ResponseInput:
		return responseEvidence(t)
	case *ResponseInput:
		return responseEvidence(*t)
	case V3ExceptionInput:
		return v3Evidence(t)
	case *V3ExceptionInput:
		return v3Evidence(*t)
	case V2ExceptionInput:
		return v2Evidence(t)
	case *V2ExceptionInput:
		return v2Evidence(*t)
	case SignatureErrorInput:
		return signatureEvidence(t)
	case *SignatureErrorInput:
		return signatureEvidence(*t)
	case LogTextInput:
		return a.logEvidence(t)
	case *LogTextInput:
		return a.logEvidence(*t)
	}
	panic(fmt.Sprintf("analyzer: unhandled input variant %T", in))
}

func classificationEvidence(in ClassificationInput) Evidence {
	ev := Evidence{
		Kind:       in.Kind(),
		StatusCode: in.StatusCode,
		Message:    in.Message,
		VendorCode: in.VendorCode,
		Headers:    copyHeaders(in.Headers),
		RequestID:  in.RequestID,
		Raw: map[string]any{
			"status_code": in.StatusCode,
			"message":     in.Message,
		},
	}
	if in.VendorCode != "" {
		ev.Raw["vendor_code"] = in.VendorCode
	}
	if ev.Message == "" {
		ev.Message = logparse.UnknownMessage
	}
	if ev.RequestID == "" {
		ev.RequestID = requestIDFromHeaders(ev.Headers)
	}
	ev.setEndpoint(in.Endpoint)
	return ev
}

func dictEvidence(in DictInput) Evidence {
	data := in.Data
	ev := Evidence{
		Kind:       in.Kind(),
		StatusCode: coerceStatus(data["status_code"]),
		Message:    logparse.UnknownMessage,
		Headers:    headersFromAny(data["headers"]),
		Details:    detailsFromAny(data["details"]),
		Raw:        copyAny(data),
	}
	if msg, ok := data["message"]; ok && msg != nil {
		ev.Message = logparse.Stringify(msg)
	}
	if rid, ok := data["request_id"].(string); ok {
		ev.RequestID = rid
	}
	if ev.RequestID == "" {
		ev.RequestID = requestIDFromHeaders(ev.Headers)
	}
	ev.VendorCode = vendorCodeFrom(data)
	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint, _ = data["endpoint"].(string)
	}
	ev.setEndpoint(endpoint)
	return ev
}

func responseEvidence(in ResponseInput) Evidence {
	ev := Evidence{
		Kind:       in.Kind(),
		StatusCode: in.StatusCode,
		Message:    in.Text,
		Headers:    copyHeaders(in.Headers),
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(in.Text), &data); err == nil && data != nil {
		if msg, ok := data["message"]; ok && msg != nil {
			ev.Message = logparse.Stringify(msg)
		}
		ev.Details = detailsFromAny(data["details"])
		ev.VendorCode = vendorCodeFrom(data)
		ev.Raw = data
	} else {
		ev.Raw = map[string]any{"status_code": in.StatusCode, "message": in.Text}
	}
	if strings.TrimSpace(ev.Message) == "" {
		ev.Message = logparse.UnknownMessage
	}
	ev.RequestID = requestIDFromHeaders(ev.Headers)
	ev.setEndpoint(in.Endpoint)
	return ev
}

func v3Evidence(in V3ExceptionInput) Evidence {
	ev := Evidence{
		Kind:       in.Kind(),
		StatusCode: in.Status,
		Headers:    copyHeaders(in.Headers),
		Raw:        map[string]any{},
	}
	if len(in.Body) > 0 {
		var data map[string]any
		if err := json.Unmarshal(in.Body, &data); err == nil && data != nil {
			ev.Raw = data
		} else {
			ev.Raw = map[string]any{"message": string(in.Body)}
		}
	}
	switch {
	case ev.Raw["message"] != nil:
		ev.Message = logparse.Stringify(ev.Raw["message"])
	case in.Reason != "":
		ev.Message = in.Reason
	default:
		ev.Message = logparse.UnknownMessage
	}
	ev.Details = detailsFromAny(ev.Raw["details"])
	ev.VendorCode = vendorCodeFrom(ev.Raw)
	ev.RequestID = requestIDFromHeaders(ev.Headers)
	ev.setEndpoint(in.Endpoint)
	return ev
}

func v2Evidence(in V2ExceptionInput) Evidence {
	ev := Evidence{
		Kind:              in.Kind(),
		StatusCode:        in.StatusCode,
		Message:           logparse.UnknownMessage,
		Headers:           copyHeaders(in.Headers),
		RequestID:         in.RequestID,
		AcceptedRequestID: in.AcceptedRequestID,
	}
	errObj := map[string]any{"message": ev.Message, "details": []any{}}
	if in.Error != nil {
		if in.Error.Message != "" {
			ev.Message = in.Error.Message
		}
		details := make([]any, 0, len(in.Error.Details))
		for _, d := range in.Error.Details {
			details = append(details, map[string]any{"message": d.Message, "property": d.Property})
		}
		ev.Details = details
		errObj = map[string]any{"message": ev.Message, "details": details}
	}
	if ev.RequestID == "" {
		ev.RequestID = requestIDFromHeaders(ev.Headers)
	}
	ev.Raw = map[string]any{
		"status_code":         in.StatusCode,
		"request_id":          in.RequestID,
		"accepted_request_id": in.AcceptedRequestID,
		"error":               errObj,
	}
	ev.setEndpoint(in.Endpoint)
	return ev
}

func signatureEvidence(in SignatureErrorInput) Evidence {
	msg := in.Message
	if msg == "" {
		msg = "Invalid signature"
	}
	return Evidence{
		Kind:       in.Kind(),
		StatusCode: 400,
		Message:    msg,
		Headers:    map[string]string{},
		Raw:        map[string]any{"error_type": "InvalidSignatureError", "message": msg},
		Decision: &engine.Decision{
			Category: taxonomy.CategoryInvalidSignature,
			Tier:     engine.TierInputType,
		},
	}
}

func (a *Analyzer) logEvidence(in LogTextInput) Evidence {
	rec := a.parse(in.Text)
	ev := Evidence{
		Kind:    in.Kind(),
		Headers: copyHeaders(rec.Headers),
		Raw:     map[string]any{"log": in.Text},
	}
	ev.setEndpoint(in.Endpoint)
	if !rec.ParseSuccess {
		ev.Message = in.Text
		ev.Decision = &engine.Decision{Category: taxonomy.CategoryUnknown, Tier: engine.TierFallback}
		ev.Description = parseFailedDescription
		return ev
	}
	if rec.StatusCode != nil {
		ev.StatusCode = *rec.StatusCode
	}
	ev.Message = rec.Message
	ev.RequestID = rec.RequestID
	ev.Details = detailsFromAny(rec.Body["details"])
	ev.VendorCode = vendorCodeFrom(rec.Body)
	if len(rec.Body) > 0 {
		ev.Raw["body"] = copyAny(rec.Body)
	}
	return ev
}

// setEndpoint records id and its parsed key. Malformed ids are kept for
// display but do not take part in classification.
func (ev *Evidence) setEndpoint(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	ev.EndpointID = id
	if key, err := taxonomy.ParseEndpoint(id); err == nil {
		ev.Endpoint = key
	}
}

func coerceStatus(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0
			}
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func vendorCodeFrom(data map[string]any) string {
	for _, key := range []string{"error_code", "vendor_code"} {
		switch t := data[key].(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return strconv.FormatInt(int64(t), 10)
		case int:
			return strconv.Itoa(t)
		case json.Number:
			return t.String()
		}
	}
	return ""
}

func headersFromAny(v any) map[string]string {
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]string:
		for k, val := range t {
			out[k] = val
		}
	case map[string]any:
		for k, val := range t {
			if val != nil {
				out[k] = logparse.Stringify(val)
			}
		}
	}
	return out
}

func detailsFromAny(v any) []any {
	switch t := v.(type) {
	case []any:
		return append([]any(nil), t...)
	case []map[string]any:
		out := make([]any, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out
	case nil:
		return nil
	default:
		return []any{t}
	}
}

func requestIDFromHeaders(h map[string]string) string {
	for k, v := range h {
		if strings.EqualFold(k, "x-line-request-id") {
			return v
		}
	}
	return ""
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func copyAny(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
