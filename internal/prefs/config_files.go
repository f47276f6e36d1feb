package prefs

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cliconfig-go/internal/catalog"
)

// ConfigFileIDPrefix starts the id of every attached config file.
const ConfigFileIDPrefix = "config-"

// ToolConfigFiles returns the extra config files attached to a tool, or an
// empty slice when there are none.
func (s *Store) ToolConfigFiles(toolID string) []ConfigFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tc := range s.prefs.ToolConfigs {
		if tc.ToolID == toolID {
			return append([]ConfigFile{}, tc.ConfigFiles...)
		}
	}
	return []ConfigFile{}
}

// HasConfigFiles reports whether any config file is attached to the tool.
func (s *Store) HasConfigFiles(toolID string) bool {
	return len(s.ToolConfigFiles(toolID)) > 0
}

// ConfigFile returns one attached config file.
func (s *Store) ConfigFile(toolID, id string) (ConfigFile, error) {
	for _, f := range s.ToolConfigFiles(toolID) {
		if f.ID == id {
			return f, nil
		}
	}
	return ConfigFile{}, fmt.Errorf("%w: %s/%s", ErrConfigFileNotFound, toolID, id)
}

// AddConfigFile assigns file a new id and attaches it to the tool. The
// format is detected from the path when it is empty.
func (s *Store) AddConfigFile(toolID string, file ConfigFile) (ConfigFile, error) {
	toolID = strings.TrimSpace(toolID)
	if toolID == "" {
		return ConfigFile{}, fmt.Errorf("%w: tool id is required", ErrInvalidConfigFile)
	}
	file, err := normalizeConfigFile(file)
	if err != nil {
		return ConfigFile{}, err
	}

	file.ID = ConfigFileIDPrefix + uuid.NewString()
	err = s.update("add_config_file", toolID, func(p *Preferences) error {
		for i := range p.ToolConfigs {
			if p.ToolConfigs[i].ToolID == toolID {
				p.ToolConfigs[i].ConfigFiles = append(p.ToolConfigs[i].ConfigFiles, file)
				return nil
			}
		}
		p.ToolConfigs = append(p.ToolConfigs, ToolConfigFiles{ToolID: toolID, ConfigFiles: []ConfigFile{file}})
		return nil
	})
	return file, err
}

// UpdateConfigFile changes the given fields of an attached config file.
func (s *Store) UpdateConfigFile(toolID, id string, upd ConfigFileUpdate) (ConfigFile, error) {
	var updated ConfigFile
	err := s.update("update_config_file", toolID, func(p *Preferences) error {
		i, j, ok := findConfigFile(p, toolID, id)
		if !ok {
			return fmt.Errorf("%w: %s/%s", ErrConfigFileNotFound, toolID, id)
		}
		next, err := normalizeConfigFile(upd.apply(p.ToolConfigs[i].ConfigFiles[j]))
		if err != nil {
			return err
		}
		p.ToolConfigs[i].ConfigFiles[j] = next
		updated = next
		return nil
	})
	return updated, err
}

// RemoveConfigFile detaches a config file. A tool left with no files is
// dropped from the list.
func (s *Store) RemoveConfigFile(toolID, id string) error {
	return s.update("remove_config_file", toolID, func(p *Preferences) error {
		i, j, ok := findConfigFile(p, toolID, id)
		if !ok {
			return fmt.Errorf("%w: %s/%s", ErrConfigFileNotFound, toolID, id)
		}
		files := p.ToolConfigs[i].ConfigFiles
		p.ToolConfigs[i].ConfigFiles = append(files[:j], files[j+1:]...)
		if len(p.ToolConfigs[i].ConfigFiles) == 0 {
			p.ToolConfigs = append(p.ToolConfigs[:i], p.ToolConfigs[i+1:]...)
		}
		return nil
	})
}

func findConfigFile(p *Preferences, toolID, id string) (int, int, bool) {
	for i, tc := range p.ToolConfigs {
		if tc.ToolID != toolID {
			continue
		}
		for j, f := range tc.ConfigFiles {
			if f.ID == id {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func normalizeConfigFile(file ConfigFile) (ConfigFile, error) {
	file.Label = strings.TrimSpace(file.Label)
	file.Path = strings.TrimSpace(file.Path)
	file.JSONPath = strings.TrimSpace(file.JSONPath)
	if file.Label == "" {
		return file, fmt.Errorf("%w: label is required", ErrInvalidConfigFile)
	}
	if file.Path == "" {
		return file, fmt.Errorf("%w: path is required", ErrInvalidConfigFile)
	}

	if file.Format == "" {
		f, err := catalog.DetectFormat(file.Path)
		if err != nil {
			return file, fmt.Errorf("%w: cannot detect format of %s, set it explicitly", ErrInvalidConfigFile, file.Path)
		}
		file.Format = f
	}
	if !file.Format.Valid() {
		return file, fmt.Errorf("%w: %q", catalog.ErrUnsupportedFormat, file.Format)
	}
	return file, nil
}
