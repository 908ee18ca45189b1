package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Category", KeyCategory, "RATE_LIMIT", Category("RATE_LIMIT")},
		{"Endpoint", KeyEndpoint, "message.message_push", Endpoint("message.message_push")},
		{"Tier", KeyTier, "vendor_code", Tier("vendor_code")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"BatchID", KeyBatchID, "b1", BatchID("b1")},
		{"Source", KeySource, "cli", Source("cli")},
		{"Subject", KeySubject, "errors.classify", Subject("errors.classify")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Addr", KeyAddr, ":9090", Addr(":9090")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := StatusCode(429); v.Key != KeyStatusCode || v.Value.Int64() != 429 {
		t.Fatalf("StatusCode mismatch: %v", v)
	}
	if v := BatchSize(3); v.Key != KeyBatchSize {
		t.Fatalf("BatchSize key mismatch: %s", v.Key)
	}
	if v := Index(2); v.Key != KeyIndex {
		t.Fatalf("Index key mismatch: %s", v.Key)
	}
	if v := DurationMS(1.5); v.Key != KeyDurationMS || v.Value.Float64() != 1.5 {
		t.Fatalf("DurationMS mismatch: %v", v)
	}
	if v := Retryable(true); !v.Value.Bool() {
		t.Fatal("Retryable should carry true")
	}
}

func TestError(t *testing.T) {
	if v := Error(nil); v.Value.String() != "" {
		t.Fatalf("nil error should be empty, got %q", v.Value.String())
	}
	if v := Error(errors.New("boom")); v.Key != KeyError || v.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", v)
	}
}
