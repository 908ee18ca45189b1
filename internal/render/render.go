// Package render writes results, parsed log records and the endpoint table
// to a terminal or pipe in text, JSON or styled form.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/catalog"
	"git.home.luguber.info/inful/errdetective/internal/logparse"
)

// Format selects the output style.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// ParseFormat accepts text, json and pretty in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatPretty:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or pretty)", s)
	}
}

// Result writes one result.
func Result(w io.Writer, r analyzer.Result, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatPretty:
		_, err := fmt.Fprintln(w, prettyResult(r))
		return err
	default:
		_, err := fmt.Fprintln(w, r.String())
		return err
	}
}

// Results writes a batch: a JSON array, or the single renderings separated
// by blank lines.
func Results(w io.Writer, rs []analyzer.Result, f Format) error {
	if f == FormatJSON {
		if rs == nil {
			rs = []analyzer.Result{}
		}
		return writeJSON(w, rs)
	}
	for i, r := range rs {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := Result(w, r, f); err != nil {
			return err
		}
	}
	return nil
}

// Record writes the fields extracted from a log.
func Record(w io.Writer, rec logparse.Record, f Format) error {
	if f == FormatJSON {
		return writeJSON(w, rec)
	}
	status := "-"
	if rec.StatusCode != nil {
		status = fmt.Sprint(*rec.StatusCode)
	}
	rows := [][2]string{
		{"Parsed", fmt.Sprint(rec.ParseSuccess)},
		{"Status", status},
		{"Message", rec.Message},
		{"Request ID", rec.RequestID},
		{"Headers", fmt.Sprint(len(rec.Headers))},
	}
	if len(rec.Body) > 0 {
		body, _ := json.Marshal(rec.Body)
		rows = append(rows, [2]string{"Body", string(body)})
	}
	if f == FormatPretty {
		_, err := fmt.Fprintln(w, prettyRows(rows))
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-11s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

type endpointJSON struct {
	Endpoint    string `json:"endpoint"`
	Description string `json:"description"`
	Statuses    []int  `json:"statuses"`
}

// Endpoints writes the registered endpoint table.
func Endpoints(w io.Writer, eps []catalog.EndpointInfo, f Format) error {
	if f == FormatJSON {
		out := make([]endpointJSON, 0, len(eps))
		for _, e := range eps {
			statuses := e.Statuses
			if statuses == nil {
				statuses = []int{}
			}
			out = append(out, endpointJSON{Endpoint: e.Key.String(), Description: e.Description, Statuses: statuses})
		}
		return writeJSON(w, out)
	}
	if f == FormatPretty {
		_, err := fmt.Fprintln(w, prettyEndpoints(eps))
		return err
	}
	for _, e := range eps {
		if _, err := fmt.Fprintf(w, "%-40s %-30s %s\n", e.Key.String(), e.Description, joinInts(e.Statuses)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}
