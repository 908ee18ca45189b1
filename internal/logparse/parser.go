// Package logparse extracts structured fields from free-form API error logs,
// such as the string form of SDK exceptions.
package logparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// UnknownMessage is the placeholder used when no message could be extracted.
const UnknownMessage = "Unknown error"

// Record is the result of parsing one log string. Maps are never nil.
type Record struct {
	StatusCode   *int              `json:"status_code"`
	Reason       string            `json:"reason,omitempty"`
	Message      string            `json:"message"`
	Headers      map[string]string `json:"headers"`
	Body         map[string]any    `json:"body"`
	RequestID    string            `json:"request_id,omitempty"`
	ParseSuccess bool              `json:"parse_success"`
	Raw          string            `json:"raw_log"`
}

var (
	statusPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\((\d{3})\)`),
		regexp.MustCompile(`HTTP\s+(\d{3})`),
		regexp.MustCompile(`Status:\s*(\d{3})`),
		regexp.MustCompile(`status_code:\s*(\d{3})`),
		regexp.MustCompile(`(\d{3})\s+[A-Za-z]`),
	}

	reasonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Reason:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)\(\d{3}\)\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)\d{3}\s+(.+?)(?:\n|$)`),
	}

	headerBlockPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)HTTP response headers:\s*(.+?)(?:\n|HTTP response body|$)`),
		regexp.MustCompile(`(?is)Headers:\s*(.+?)(?:\n|Body|$)`),
		regexp.MustCompile(`(?is)headers:\s*(.+?)(?:\n|body|$)`),
	}

	bodyBlockPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)HTTP response body:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?is)Body:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?is)body:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?is)Response:\s*(.+?)(?:\n|$)`),
	}

	requestIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)x-line-request-id['"]?\s*:\s*['"]([^'"\s,}]+)`),
		regexp.MustCompile(`(?i)request.id['"]?\s*:\s*['"]([^'"\s,}]+)`),
	}

	// HTTPHeaderDict({...}) and similar repr wrappers.
	dictWrapperPattern = regexp.MustCompile(`\w+\((\{.+?\})\)`)
	dictPairPattern    = regexp.MustCompile(`['"]([^'"]+)['"]\s*:\s*['"]([^'"]*)['"]`)
	jsonObjectPattern  = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	errorKeywords = regexp.MustCompile(`error|fail|exception|invalid|unauthorized|forbidden|not found|timeout`)
)

// Parser extracts records from log text. The zero value is ready to use and
// safe for concurrent use.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// Parse never fails; fields that cannot be found are left empty and
// ParseSuccess reports whether anything useful was extracted.
func (p *Parser) Parse(text string) Record {
	rec := Record{Raw: text}
	rec.StatusCode = extractStatus(text)
	rec.Reason = extractReason(text)
	rec.Headers = extractHeaders(text)
	rec.Body = extractBody(text)
	rec.RequestID = extractRequestID(text, rec.Headers)

	msg, found := extractMessage(rec.Body, rec.Reason)
	rec.Message = msg
	rec.ParseSuccess = rec.StatusCode != nil || found

	if rec.Headers == nil {
		rec.Headers = map[string]string{}
	}
	if rec.Body == nil {
		rec.Body = map[string]any{}
	}
	return rec
}

// IsParseable reports whether text looks like an error log at all: it
// carries a status code or an error keyword.
func (p *Parser) IsParseable(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, re := range statusPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return errorKeywords.MatchString(cases.Fold().String(text))
}

func extractStatus(text string) *int {
	for _, re := range statusPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &code
	}
	return nil
}

func extractReason(text string) string {
	for _, re := range reasonPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if r := strings.TrimSpace(m[1]); r != "" {
			return r
		}
	}
	return ""
}

func extractHeaders(text string) map[string]string {
	for _, re := range headerBlockPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		block := strings.TrimSpace(m[1])
		headers := parseHeaderBlock(block)
		if len(headers) > 0 {
			return headers
		}
	}
	return nil
}

func parseHeaderBlock(block string) map[string]string {
	headers := make(map[string]string)

	if m := dictWrapperPattern.FindStringSubmatch(block); m != nil {
		block = m[1]
	}

	if strings.HasPrefix(block, "{") && strings.HasSuffix(block, "}") {
		for _, pair := range dictPairPattern.FindAllStringSubmatch(block, -1) {
			headers[pair[1]] = pair[2]
		}
		return headers
	}

	for _, line := range strings.Split(block, ",") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), `'"`)
		value = strings.Trim(strings.TrimSpace(value), `'"`)
		if key != "" && value != "" {
			headers[key] = value
		}
	}
	return headers
}

func extractBody(text string) map[string]any {
	for _, re := range bodyBlockPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		block := strings.TrimSpace(m[1])
		if obj := jsonObjectPattern.FindString(block); obj != "" {
			var body map[string]any
			if err := json.Unmarshal([]byte(obj), &body); err == nil {
				return body
			}
		}
		if block != "" {
			return map[string]any{"message": block}
		}
	}
	return nil
}

func extractRequestID(text string, headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-line-request-id") && v != "" {
			return v
		}
	}
	for _, re := range requestIDPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractMessage(body map[string]any, reason string) (string, bool) {
	for _, key := range []string{"message", "error", "details"} {
		v, ok := body[key]
		if !ok || v == nil {
			continue
		}
		if s := Stringify(v); s != "" {
			return s, true
		}
	}
	if reason != "" {
		return reason, true
	}
	return UnknownMessage, false
}

// Stringify renders a decoded JSON value as text. Strings are returned as is,
// everything else as compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
