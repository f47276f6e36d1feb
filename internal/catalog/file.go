package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File is the layout of a user catalog file:
//
//	[[tools]]
//	id = "aider"
//	name = "Aider"
//	[[tools.suggested_configs]]
//	label = "Settings"
//	path = "~/.aider.conf.yml"
//	format = "yaml"
type File struct {
	Tools []Tool `json:"tools" yaml:"tools" toml:"tools"`
}

// LoadFile reads a catalog in TOML, YAML or JSON, chosen by extension, and
// validates it.
func LoadFile(path string) ([]Tool, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var file File
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w for catalogs: %s", ErrUnsupportedFormat, format)
	}

	if err := Validate(file.Tools); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return file.Tools, nil
}

// Validate checks that every tool has an id and a name, ids are unique and
// suggested configs have a path and a supported format. A missing format
// is detected from the path.
func Validate(tools []Tool) error {
	var errs []error
	seen := make(map[string]bool, len(tools))

	for i := range tools {
		t := &tools[i]
		switch {
		case t.ID == "":
			errs = append(errs, fmt.Errorf("tool %d: missing id", i))
		case seen[t.ID]:
			errs = append(errs, fmt.Errorf("tool %q: duplicate id", t.ID))
		}
		seen[t.ID] = true
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tool %q: missing name", t.ID))
		}

		for j := range t.SuggestedConfigs {
			sc := &t.SuggestedConfigs[j]
			if sc.Path == "" {
				errs = append(errs, fmt.Errorf("tool %q config %d: missing path", t.ID, j))
				continue
			}
			if sc.Format == "" {
				if f, err := DetectFormat(sc.Path); err == nil {
					sc.Format = f
				}
			}
			if !sc.Format.Valid() {
				errs = append(errs, fmt.Errorf("tool %q config %q: %w: %q", t.ID, sc.Path, ErrUnsupportedFormat, sc.Format))
			}
		}
	}

	return errors.Join(errs...)
}
