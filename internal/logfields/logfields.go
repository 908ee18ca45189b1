package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCategory   = "category"
	KeyStatusCode = "status_code"
	KeyEndpoint   = "endpoint"
	KeyTier       = "tier"
	KeyRetryable  = "retryable"
	KeyRequestID  = "request_id"
	KeyBatchID    = "batch_id"
	KeyBatchSize  = "batch_size"
	KeyIndex      = "index"
	KeySource     = "source"
	KeySubject    = "subject"
	KeyPath       = "path"
	KeyAddr       = "addr"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func StatusCode(code int) slog.Attr   { return slog.Int(KeyStatusCode, code) }
func Endpoint(e string) slog.Attr     { return slog.String(KeyEndpoint, e) }
func Tier(t string) slog.Attr         { return slog.String(KeyTier, t) }
func Retryable(r bool) slog.Attr      { return slog.Bool(KeyRetryable, r) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func BatchID(id string) slog.Attr     { return slog.String(KeyBatchID, id) }
func BatchSize(n int) slog.Attr       { return slog.Int(KeyBatchSize, n) }
func Index(i int) slog.Attr           { return slog.Int(KeyIndex, i) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
