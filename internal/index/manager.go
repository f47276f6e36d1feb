// Package index provides full-text search over tools with an in-memory
// bleve index.
package index

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

const defaultSearchLimit = 20

// Document is a searchable tool.
type Document struct {
	ID          string
	Name        string
	Description string
	// Kind separates built-in tools from user-defined ones, e.g. "builtin", "custom".
	Kind string
	// Paths are the tool's known config file paths.
	Paths []string
}

// SearchResult is a matching tool id with its relevance score.
type SearchResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

// Manager provides a unified interface for indexing operations
type Manager struct {
	index  bleve.Index
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewManager creates an empty in-memory index.
func NewManager(logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create tool index: %w", err)
	}

	return &Manager{index: idx, logger: logger}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	toolMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"id", "kind"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		toolMapping.AddFieldMappingsAt(field, fm)
	}

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = standard.Name
	nameField.Store = true
	toolMapping.AddFieldMappingsAt("name", nameField)

	for _, field := range []string{"description", "paths"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = false
		toolMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.DefaultMapping = toolMapping
	return indexMapping
}

// Close closes the index manager
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Close()
}

// BatchIndexTools adds or replaces many tools in one batch
func (m *Manager) BatchIndexTools(docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := m.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, toFields(doc)); err != nil {
			return fmt.Errorf("failed to batch tool %s: %w", doc.ID, err)
		}
	}
	if err := m.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index %d tools: %w", len(docs), err)
	}

	m.logger.Debug("Indexed tools", zap.Int("count", len(docs)))
	return nil
}

// SearchTools finds tools whose name, description, id or config paths match
// text. Each word may match as a prefix of a name word, so "gem" finds
// "Gemini CLI". Results are ordered by score, best first.
func (m *Manager) SearchTools(text string, limit int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// Every word must match somewhere.
	conjuncts := make([]query.Query, 0, len(words))
	for _, word := range words {
		conjuncts = append(conjuncts, wordQuery(word))
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(conjuncts...))
	req.Size = limit
	req.Fields = []string{"name", "kind"}

	res, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("tool search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := SearchResult{ID: hit.ID, Score: hit.Score}
		if name, ok := hit.Fields["name"].(string); ok {
			r.Name = name
		}
		if kind, ok := hit.Fields["kind"].(string); ok {
			r.Kind = kind
		}
		results = append(results, r)
	}
	return results, nil
}

func wordQuery(word string) query.Query {
	name := bleve.NewMatchQuery(word)
	name.SetField("name")
	name.SetBoost(3)

	namePrefix := bleve.NewPrefixQuery(word)
	namePrefix.SetField("name")
	namePrefix.SetBoost(2)

	id := bleve.NewPrefixQuery(word)
	id.SetField("id")
	id.SetBoost(2)

	description := bleve.NewMatchQuery(word)
	description.SetField("description")

	paths := bleve.NewMatchQuery(word)
	paths.SetField("paths")

	return bleve.NewDisjunctionQuery(name, namePrefix, id, description, paths)
}

// GetDocumentCount returns the number of indexed documents
func (m *Manager) GetDocumentCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.DocCount()
}

func toFields(doc Document) map[string]interface{} {
	return map[string]interface{}{
		"id":          doc.ID,
		"name":        doc.Name,
		"description": doc.Description,
		"kind":        doc.Kind,
		"paths":       strings.Join(doc.Paths, " "),
	}
}
