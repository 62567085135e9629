// Package search provides an in-memory full-text index over tasks.
//
// The index is built on bleve and lives only for the session. Title and
// description are analyzed with the standard analyzer; status is indexed as a
// keyword and can be used as a filter by adding a status: term to the query:
//
//	idx, _ := search.New()
//	ids, _ := idx.Search(ctx, "report status:pending", 10)
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/vinayprograms/taskboard/errors"
	"github.com/vinayprograms/taskboard/tasks"
)

// DefaultLimit is used when Search is called with a non-positive limit.
const DefaultLimit = 20

// ErrIndexClosed is returned by every operation after Close.
var ErrIndexClosed = errors.Unavailable("search index closed")

// Index is a bleve-backed tasks.Indexer.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed atomic.Bool
}

var _ tasks.Indexer = (*Index)(nil)

// document is the indexed form of a task.
type document struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &Index{index: idx}, nil
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() mapping.IndexMapping {
	taskMapping := bleve.NewDocumentMapping()

	// Text field mapping (analyzed for full-text search)
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	// Keyword field mapping, kept out of _all so plain terms only hit text
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.IncludeInAll = false

	dateFieldMapping := bleve.NewDateTimeFieldMapping()
	dateFieldMapping.IncludeInAll = false

	taskMapping.AddFieldMappingsAt("title", textFieldMapping)
	taskMapping.AddFieldMappingsAt("description", textFieldMapping)
	taskMapping.AddFieldMappingsAt("status", keywordFieldMapping)
	taskMapping.AddFieldMappingsAt("created_at", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = taskMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Index adds or replaces a task.
func (i *Index) Index(task tasks.Task) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed.Load() {
		return ErrIndexClosed
	}

	doc := document{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status.String(),
		CreatedAt:   task.CreatedAt,
	}
	if err := i.index.Index(task.ID, doc); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

// Delete removes a task. Deleting an unknown ID is not an error.
func (i *Index) Delete(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed.Load() {
		return ErrIndexClosed
	}

	if err := i.index.Delete(id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Search returns IDs of tasks matching q, best match first. Free text is
// matched against title and description; a "status:<name>" term restricts
// results to that status. An empty query matches every task.
func (i *Index) Search(ctx context.Context, q string, limit int) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed.Load() {
		return nil, ErrIndexClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	searchReq := bleve.NewSearchRequest(buildQuery(q))
	searchReq.Size = limit

	result, err := i.index.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildQuery turns free text plus optional status: terms into a bleve query.
func buildQuery(q string) query.Query {
	var text []string
	var filters []query.Query
	for _, field := range strings.Fields(q) {
		if status, ok := strings.CutPrefix(field, "status:"); ok && status != "" {
			term := bleve.NewTermQuery(strings.ToLower(status))
			term.SetField("status")
			filters = append(filters, term)
			continue
		}
		text = append(text, field)
	}

	var clauses []query.Query
	if len(text) > 0 {
		joined := strings.Join(text, " ")
		title := bleve.NewMatchQuery(joined)
		title.SetField("title")
		desc := bleve.NewMatchQuery(joined)
		desc.SetField("description")
		clauses = append(clauses, bleve.NewDisjunctionQuery(title, desc))
	}
	clauses = append(clauses, filters...)

	switch len(clauses) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return clauses[0]
	default:
		return bleve.NewConjunctionQuery(clauses...)
	}
}

// Count returns the number of indexed tasks.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed.Load() {
		return 0, ErrIndexClosed
	}
	return i.index.DocCount()
}

// Close releases the index. Safe to call more than once.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed.Swap(true) {
		return nil
	}
	return i.index.Close()
}

// OnShutdown closes the index.
func (i *Index) OnShutdown(ctx context.Context) error {
	return i.Close()
}
