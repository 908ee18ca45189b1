package commands

import (
	"fmt"

	"git.home.luguber.info/inful/errdetective/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run(g *Global, _ *CLI) error {
	_, err := fmt.Fprintf(g.Out, "Version:    %s\nGit commit: %s\nBuilt:      %s\n", version.Version, version.GitCommit, version.BuildTime)
	return err
}
