package commands

import (
	"context"

	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/logparse"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/render"
)

// ParseCmd implements the 'parse' command.
type ParseCmd struct {
	File     string `arg:"" optional:"" help:"Log file; stdin when omitted or -" type:"path"`
	Classify bool   `help:"Classify the parsed error instead of printing the extracted fields"`
	Endpoint string `short:"e" help:"Endpoint id used when classifying"`
}

func (p *ParseCmd) Run(g *Global, root *CLI) error {
	data, err := readInput(g, p.File)
	if err != nil {
		return errors.InvalidField("file", err.Error())
	}
	text := string(data)

	if !p.Classify {
		return render.Record(g.Out, logparse.New().Parse(text), root.format())
	}

	ctx := observability.WithSource(context.Background(), "cli")
	a, cleanup, err := newAnalyzer(ctx, g, root)
	if err != nil {
		return err
	}
	defer cleanup()
	return render.Result(g.Out, a.AnalyzeLog(ctx, text, p.Endpoint), root.format())
}
