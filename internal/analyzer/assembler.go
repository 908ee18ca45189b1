package analyzer

import (
	"git.home.luguber.info/inful/errdetective/internal/engine"
	"git.home.luguber.info/inful/errdetective/internal/retry"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

// Assembler turns Evidence into a Result: classification, guidance and the
// retry advice.
type Assembler struct {
	engine *engine.Engine
}

// NewAssembler returns an assembler over e, or over the default engine when e is nil.
func NewAssembler(e *engine.Engine) *Assembler {
	if e == nil {
		e = engine.New(nil)
	}
	return &Assembler{engine: e}
}

// Engine returns the engine the assembler classifies with.
func (as *Assembler) Engine() *engine.Engine { return as.engine }

// Assemble never fails. ev's maps are copied, never retained.
func (as *Assembler) Assemble(ev Evidence) Result {
	var d engine.Decision
	if ev.Decision != nil {
		d = *ev.Decision
	} else {
		d = as.engine.Classify(engine.Query{
			StatusCode: ev.StatusCode,
			Message:    ev.Message,
			VendorCode: ev.VendorCode,
			Endpoint:   ev.Endpoint,
		})
	}

	details := as.engine.ResolveDetails(d.Category, ev.Endpoint, ev.StatusCode)
	if ev.Description != "" {
		details.Description = ev.Description
	}

	headers := copyHeaders(ev.Headers)
	r := Result{
		StatusCode:        ev.StatusCode,
		Message:           ev.Message,
		Category:          d.Category,
		Severity:          taxonomy.SeverityOf(d.Category),
		IsRetryable:       d.Retryable,
		Description:       details.Description,
		RecommendedAction: details.Action,
		RetryAfter:        retry.After(d.Category, d.Retryable, headers),
		RequestID:         ev.RequestID,
		AcceptedRequestID: ev.AcceptedRequestID,
		Headers:           headers,
		DocumentationURL:  details.DocURL,
		Solutions:         details.Solutions,
		EndpointCode:      details.Code,
		Endpoint:          ev.EndpointID,
		Details:           append([]any(nil), ev.Details...),
		Tier:              d.Tier,
		InputKind:         ev.Kind,
		RawInput:          copyAny(ev.Raw),
	}
	if !d.Endpoint.IsZero() {
		r.Endpoint = d.Endpoint.String()
	}
	return r
}
