package commands

import (
	"git.home.luguber.info/inful/errdetective/internal/catalog"
	"git.home.luguber.info/inful/errdetective/internal/render"
)

// EndpointsCmd implements the 'endpoints' command.
type EndpointsCmd struct {
	Namespace string `short:"n" help:"Only list this namespace"`
}

func (e *EndpointsCmd) Run(g *Global, root *CLI) error {
	var opts []catalog.Option
	if path := root.config().Catalog.OverlayFile; path != "" {
		opts = append(opts, catalog.WithOverlayFile(path))
	}
	c, err := catalog.New(opts...)
	if err != nil {
		return err
	}

	eps := c.Endpoints()
	if e.Namespace != "" {
		filtered := eps[:0]
		for _, ep := range eps {
			if ep.Key.Namespace == e.Namespace {
				filtered = append(filtered, ep)
			}
		}
		eps = filtered
	}
	return render.Endpoints(g.Out, eps, root.format())
}
