// Package entities reads entity records from YAML or JSON files.
//
// A file holds either a list of records or a document with an "entities"
// key. The format follows the extension: .yaml/.yml are YAML, .json is
// JSON, anything else is tried as YAML (a superset of JSON).
package entities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.EntitySource = (*Loader)(nil)

// Loader reads entity files. A directory location loads every
// .yaml, .yml and .json file in it, sorted by name.
type Loader struct{}

// NewLoader creates a new entity loader.
func NewLoader() *Loader {
	return &Loader{}
}

// wrapped is the document form of an entity file.
type wrapped struct {
	Entities []domain.EntityRecord `json:"entities" yaml:"entities"`
}

// Load reads all records at location.
func (l *Loader) Load(ctx context.Context, location string) ([]domain.EntityRecord, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	if !info.IsDir() {
		return l.loadFile(location)
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", location, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isEntityFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []domain.EntityRecord
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := l.loadFile(filepath.Join(location, name))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// IsEntityFile reports whether a path has an extension Load reads from directories.
func IsEntityFile(path string) bool {
	return isEntityFile(path)
}

func isEntityFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func (l *Loader) loadFile(path string) ([]domain.EntityRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []domain.EntityRecord
	if strings.EqualFold(filepath.Ext(path), ".json") {
		records, err = decodeJSON(data)
	} else {
		records, err = decodeYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	logger.Debug("Loaded %d entities from %s", len(records), path)
	return records, nil
}

// Decode parses data as JSON when it starts with '[' or '{', YAML otherwise.
func Decode(data []byte) ([]domain.EntityRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return decodeJSON(trimmed)
	}
	return decodeYAML(data)
}

func decodeJSON(data []byte) ([]domain.EntityRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []domain.EntityRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var doc wrapped
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Entities, nil
}

func decodeYAML(data []byte) ([]domain.EntityRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var records []domain.EntityRecord
		if err := root.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	case yaml.MappingNode:
		var doc wrapped
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Entities, nil
	default:
		return nil, fmt.Errorf("expected a list of entities or an entities key")
	}
}
