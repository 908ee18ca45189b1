package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/observability"
)

// DefaultTimeout bounds the work done for one request.
const DefaultTimeout = 5 * time.Second

type errorReply struct {
	Error string `json:"error"`
}

// Handler turns a request payload into a reply payload. A JSON object or
// string is classified on its own; a JSON array is classified as a batch
// and answered with an array of results in the same order.
type Handler struct {
	holder  *Holder
	timeout time.Duration
	logger  *slog.Logger
}

func NewHandler(holder *Holder, timeout time.Duration, logger *slog.Logger) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{holder: holder, timeout: timeout, logger: logger}
}

// Handle never fails; problems are reported as {"error": "..."}.
func (h *Handler) Handle(ctx context.Context, payload []byte) []byte {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	ctx = observability.WithSource(ctx, "service")

	a := h.holder.Load()
	trimmed := bytes.TrimSpace(payload)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return h.fail(ctx, "invalid JSON: "+err.Error())
		}
		return h.marshal(ctx, a.AnalyzeBatch(ctx, items))
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return h.fail(ctx, "invalid JSON: "+err.Error())
	}
	r, err := a.AnalyzeContext(ctx, value)
	if err != nil {
		return h.fail(ctx, err.Error())
	}
	return h.marshal(ctx, r)
}

func (h *Handler) marshal(ctx context.Context, v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return h.fail(ctx, "encode reply: "+err.Error())
	}
	return data
}

func (h *Handler) fail(ctx context.Context, msg string) []byte {
	observability.Log(ctx, h.logger, slog.LevelWarn, "request rejected", slog.String(logfields.KeyError, msg))
	data, _ := json.Marshal(errorReply{Error: msg})
	return data
}
