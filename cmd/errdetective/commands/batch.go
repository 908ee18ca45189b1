package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/render"
)

// BatchCmd implements the 'batch' command.
type BatchCmd struct {
	File string `arg:"" optional:"" help:"JSON array or JSON lines file; stdin when omitted or -" type:"path"`
}

func (b *BatchCmd) Run(g *Global, root *CLI) error {
	data, err := readInput(g, b.File)
	if err != nil {
		return errors.InvalidField("file", err.Error())
	}
	items, err := decodeItems(data)
	if err != nil {
		return err
	}

	ctx := observability.WithSource(context.Background(), "cli")
	a, cleanup, err := newAnalyzer(ctx, g, root)
	if err != nil {
		return err
	}
	defer cleanup()

	return render.Results(g.Out, a.AnalyzeBatch(ctx, items), root.format())
}

// decodeItems accepts a JSON array or one JSON value per line.
func decodeItems(data []byte) ([]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.InvalidField("input", "invalid JSON array: "+err.Error())
		}
		return items, nil
	}

	var items []any
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, errors.InvalidField("input", fmt.Sprintf("line %d: %v", n, err))
		}
		items = append(items, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.InvalidField("input", err.Error())
	}
	return items, nil
}
