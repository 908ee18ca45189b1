package main

import (
	stdErrors "errors"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/errdetective/cmd/errdetective/commands"
	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Must(&cli,
		kong.Name("errdetective"),
		kong.Description("Classify LINE Messaging API errors and explain how to handle them."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		var perr *kong.ParseError
		if stdErrors.As(err, &perr) {
			parser.FatalIfErrorf(err)
		}
		errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
		return
	}

	g := commands.NewGlobal()
	err = kctx.Run(g, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(err)
}
