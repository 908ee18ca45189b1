package commands

import (
	"context"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/render"
)

// ClassifyCmd implements the 'classify' command.
type ClassifyCmd struct {
	Status     int               `short:"s" help:"HTTP status code"`
	Message    string            `short:"m" help:"Error message"`
	VendorCode string            `name:"vendor-code" help:"Vendor error code"`
	Endpoint   string            `short:"e" help:"Endpoint id, namespace.operation or operation"`
	Header     map[string]string `short:"H" help:"Response header as key=value (repeatable)"`
	RequestID  string            `name:"request-id" help:"Request id"`
	Signature  bool              `help:"Classify a webhook signature verification failure"`
}

func (c *ClassifyCmd) Run(g *Global, root *CLI) error {
	var in analyzer.Input
	switch {
	case c.Signature:
		in = analyzer.SignatureErrorInput{Message: c.Message}
	case c.Status == 0 && c.Message == "" && c.VendorCode == "":
		return errors.InvalidField("status", "give --status, --message, --vendor-code or --signature")
	default:
		in = analyzer.ClassificationInput{
			StatusCode: c.Status,
			Message:    c.Message,
			VendorCode: c.VendorCode,
			Endpoint:   c.Endpoint,
			Headers:    c.Header,
			RequestID:  c.RequestID,
		}
	}

	ctx := observability.WithSource(context.Background(), "cli")
	a, cleanup, err := newAnalyzer(ctx, g, root)
	if err != nil {
		return err
	}
	defer cleanup()

	r, err := a.AnalyzeContext(ctx, in)
	if err != nil {
		return err
	}
	return render.Result(g.Out, r, root.format())
}
