package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

//go:embed data/endpoints.yaml
var embeddedTable []byte

type tableFile struct {
	VendorCodes map[string]ruleSpec      `yaml:"vendor_codes"`
	Namespaces  map[string]namespaceSpec `yaml:"namespaces"`
}

type ruleSpec struct {
	Category  string `yaml:"category"`
	Retryable bool   `yaml:"retryable"`
}

type namespaceSpec struct {
	Description string                   `yaml:"description"`
	Operations  map[string]operationSpec `yaml:"operations"`
}

type operationSpec struct {
	Description string             `yaml:"description"`
	Statuses    map[int]statusSpec `yaml:"statuses"`
}

type statusSpec struct {
	Category    string   `yaml:"category"`
	Retryable   bool     `yaml:"retryable"`
	Code        string   `yaml:"code"`
	Description string   `yaml:"description"`
	Action      string   `yaml:"action"`
	DocURL      string   `yaml:"doc_url"`
	Solutions   []string `yaml:"solutions"`
}

// Option configures catalog construction.
type Option func(*options)

type options struct {
	overlays []overlay
}

type overlay struct {
	data   []byte
	source string
	path   string
}

func (o overlay) load() ([]byte, string, error) {
	if o.path == "" {
		return o.data, o.source, nil
	}
	data, err := os.ReadFile(o.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, o.path, errors.ConfigNotFound(o.path)
		}
		return nil, o.path, errors.ConfigInvalid(o.path, err)
	}
	return data, o.path, nil
}

// WithOverlay applies a YAML document with the same shape as the embedded
// table. Entries it names replace existing ones; everything else is kept.
func WithOverlay(data []byte, source string) Option {
	return func(o *options) {
		if source == "" {
			source = "overlay"
		}
		o.overlays = append(o.overlays, overlay{data: data, source: source})
	}
}

// WithOverlayFile is WithOverlay reading from path at construction time.
func WithOverlayFile(path string) Option {
	return func(o *options) {
		o.overlays = append(o.overlays, overlay{path: path})
	}
}

func decodeTable(data []byte, source string) (*tableFile, error) {
	var tf tableFile
	if len(bytes.TrimSpace(data)) == 0 {
		return &tf, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, errors.ConfigInvalid(source, fmt.Errorf("decode endpoint table: %w", err))
	}
	return &tf, nil
}

func (c *Catalog) apply(tf *tableFile, source string) error {
	for code, spec := range tf.VendorCodes {
		entry := "vendor_codes." + code
		if strings.TrimSpace(code) == "" {
			return errors.CatalogEntryInvalid(entry, "empty vendor code").WithContext("source", source)
		}
		cat, err := parseCategory(spec.Category, entry, source)
		if err != nil {
			return err
		}
		c.vendor[code] = Rule{Category: cat, Retryable: spec.Retryable}
	}

	for ns, nsSpec := range tf.Namespaces {
		if err := validateSegment(ns, "namespaces."+ns, source); err != nil {
			return err
		}
		if nsSpec.Description != "" || c.namespaces[ns] == "" {
			c.namespaces[ns] = nsSpec.Description
		}
		for opName, opSpec := range nsSpec.Operations {
			entry := ns + "." + opName
			if err := validateSegment(opName, entry, source); err != nil {
				return err
			}
			key := taxonomy.EndpointKey{Namespace: ns, Operation: opName}
			op, ok := c.endpoints[key]
			if !ok {
				op = &operation{statuses: make(map[int]EndpointEntry)}
				c.endpoints[key] = op
				c.byOperation[opName] = append(c.byOperation[opName], ns)
			}
			if opSpec.Description != "" {
				op.description = opSpec.Description
			}
			for status, st := range opSpec.Statuses {
				statusEntry := fmt.Sprintf("%s.%d", entry, status)
				if status < 100 || status > 599 {
					return errors.CatalogEntryInvalid(statusEntry, "status outside 100..599").WithContext("source", source)
				}
				cat, err := parseCategory(st.Category, statusEntry, source)
				if err != nil {
					return err
				}
				op.statuses[status] = EndpointEntry{
					Rule: Rule{Category: cat, Retryable: st.Retryable},
					Details: taxonomy.Details{
						Description: st.Description,
						Action:      st.Action,
						DocURL:      st.DocURL,
						Solutions:   append([]string(nil), st.Solutions...),
						Code:        st.Code,
					},
				}
			}
		}
	}
	return nil
}

func parseCategory(raw, entry, source string) (taxonomy.Category, error) {
	cat, ok := taxonomy.ParseCategory(raw)
	if !ok {
		return "", errors.CatalogEntryInvalid(entry, fmt.Sprintf("unknown category %q", raw)).WithContext("source", source)
	}
	return cat, nil
}

func validateSegment(name, entry, source string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.CatalogEntryInvalid(entry, "empty name").WithContext("source", source)
	case strings.Contains(name, "."):
		return errors.CatalogEntryInvalid(entry, "name must not contain '.'").WithContext("source", source)
	}
	return nil
}
