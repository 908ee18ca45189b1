package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestClassifierError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ClassifierError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestClassifierError_WithContext(t *testing.T) {
	err := New(CategoryValidation, SeverityWarning, "bad field").
		WithContext("field", "status_code").
		WithContext("reason", "negative")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["field"] != "status_code" {
		t.Errorf("Context[field] = %v, want status_code", err.Context["field"])
	}
	if err.Context["reason"] != "negative" {
		t.Errorf("Context[reason] = %v, want negative", err.Context["reason"])
	}
}

func TestIsCategory(t *testing.T) {
	unsupported := UnsupportedInput(42)
	internal := InternalClassification("text", fmt.Errorf("boom"))
	standardErr := fmt.Errorf("standard error")
	wrapped := fmt.Errorf("analyze: %w", unsupported)

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"unsupported matches", unsupported, CategoryUnsupportedInput, true},
		{"unsupported does not match internal", unsupported, CategoryInternal, false},
		{"internal matches", internal, CategoryInternal, true},
		{"wrapped error is found in chain", wrapped, CategoryUnsupportedInput, true},
		{"standard error matches nothing", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCategory(test.err, test.category); got != test.expected {
				t.Errorf("IsCategory() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestGetCategoryAndRetryable(t *testing.T) {
	if got := GetCategory(fmt.Errorf("plain")); got != CategoryInternal {
		t.Errorf("GetCategory(plain) = %s, want internal", got)
	}
	te := TransportError("nats://localhost:4222", fmt.Errorf("refused"))
	if got := GetCategory(te); got != CategoryTransport {
		t.Errorf("GetCategory(transport) = %s", got)
	}
	if !IsRetryable(te) {
		t.Error("transport errors should be retryable")
	}
	if IsRetryable(UnsupportedInput("x")) {
		t.Error("unsupported input should not be retryable")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalClassification("payload", cause)
	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Context["input"] != "payload" {
		t.Errorf("input context = %v", err.Context["input"])
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := Snippet(long)
	if len([]rune(got)) != snippetLimit+3 {
		t.Errorf("snippet length = %d", len([]rune(got)))
	}
	if Snippet("short") != "short" {
		t.Error("short inputs must be unchanged")
	}
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("plain"), 1},
		{UnsupportedInput(1), 2},
		{ConfigNotFound("x.yaml"), 7},
		{TransportError("nats", fmt.Errorf("down")), 8},
		{InternalClassification("x", fmt.Errorf("y")), 10},
		{New(CategoryRuntime, SeverityError, "r"), 12},
	}
	for _, tt := range tests {
		if got := a.ExitCodeFor(tt.err); got != tt.want {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logBuf, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))
	a.out = &out
	code := -1
	a.exit = func(c int) { code = c }

	a.HandleError(ConfigNotFound("missing.yaml"))

	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
	if strings.TrimSpace(out.String()) != "configuration file not found" {
		t.Errorf("formatted = %q", out.String())
	}
	if !strings.Contains(logBuf.String(), "path=missing.yaml") {
		t.Errorf("fatal errors should be logged with context, got %q", logBuf.String())
	}
}

func TestCLIErrorAdapter_FormatVerbose(t *testing.T) {
	a := NewCLIErrorAdapter(true, nil)
	err := InternalClassification("x", fmt.Errorf("panic"))
	if got := a.FormatError(err); got != err.Error() {
		t.Errorf("verbose format = %q", got)
	}
	if got := NewCLIErrorAdapter(false, nil).FormatError(err); got != "internal: classification failed" {
		t.Errorf("terse format = %q", got)
	}
}
