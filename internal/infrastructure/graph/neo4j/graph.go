// Package neo4jgraph backs the relationship index with a Neo4j knowledge
// graph. Papers, authors, and keywords are nodes; AUTHORED and HAS_KEYWORD
// edges carry the relational facts the retrieval core asks about.
package neo4jgraph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/infrastructure/resilience"
)

const (
	queryPapersByAuthor = `MATCH (a:Author)-[:AUTHORED]->(p:Paper)
WHERE toLower(a.name) CONTAINS toLower($name)
RETURN DISTINCT p.id AS id
ORDER BY id`

	queryPapersByKeyword = `MATCH (p:Paper)-[:HAS_KEYWORD]->(k:Keyword)
WHERE toLower(k.name) = toLower($keyword)
RETURN DISTINCT p.id AS id
ORDER BY id`

	querySharedAuthors = `MATCH (a:Author)-[:AUTHORED]->(:Paper {id: $paperA})
MATCH (a)-[:AUTHORED]->(:Paper {id: $paperB})
RETURN DISTINCT a.name AS name
ORDER BY name`

	querySharedKeywords = `MATCH (:Paper {id: $paperA})-[:HAS_KEYWORD]->(k:Keyword)<-[:HAS_KEYWORD]-(:Paper {id: $paperB})
RETURN DISTINCT k.name AS name
ORDER BY name`

	queryCoAuthors = `MATCH (a1:Author)-[:AUTHORED]->(:Paper)<-[:AUTHORED]-(a2:Author)
WHERE toLower(a1.name) CONTAINS toLower($name) AND a1 <> a2
RETURN DISTINCT a2.name AS name
ORDER BY name`

	queryListAuthors = `MATCH (a:Author)
RETURN a.name AS name
ORDER BY name`

	queryListKeywords = `MATCH (k:Keyword)
RETURN k.name AS name
ORDER BY name`
)

// Index implements both the read side (relationship lookups) and the write
// side (corpus import) of the knowledge graph.
type Index struct {
	driver   neo4j.DriverWithContext
	database string
	executor *resilience.Executor
	logger   *slog.Logger

	mu        sync.Mutex
	lastQuery string
}

type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

func NewIndex(cfg Config, executor *resilience.Executor, logger *slog.Logger) (*Index, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Index{
		driver:   driver,
		database: cfg.Database,
		executor: executor,
		logger:   logger,
	}, nil
}

func (idx *Index) Close(ctx context.Context) error {
	return idx.driver.Close(ctx)
}

func (idx *Index) PapersByAuthor(ctx context.Context, name string) ([]string, error) {
	ids, err := idx.stringColumn(ctx, "neo4j.papers_by_author", queryPapersByAuthor, map[string]any{"name": name}, "id")
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return ids, nil
	}
	// Full-name matching found nothing; retry on the last name alone so
	// "papers by Phil Klaus" still finds rows stored as "Klaus, P.".
	last := lastNameOf(name)
	if last == "" || last == name {
		return nil, nil
	}
	return idx.stringColumn(ctx, "neo4j.papers_by_author", queryPapersByAuthor, map[string]any{"name": last}, "id")
}

func (idx *Index) PapersByKeyword(ctx context.Context, keyword string) ([]string, error) {
	return idx.stringColumn(ctx, "neo4j.papers_by_keyword", queryPapersByKeyword, map[string]any{"keyword": keyword}, "id")
}

func (idx *Index) SharedProperties(ctx context.Context, paperA, paperB string) (domain.SharedProperties, error) {
	params := map[string]any{"paperA": paperA, "paperB": paperB}
	authors, err := idx.stringColumn(ctx, "neo4j.shared_authors", querySharedAuthors, params, "name")
	if err != nil {
		return domain.SharedProperties{}, err
	}
	keywords, err := idx.stringColumn(ctx, "neo4j.shared_keywords", querySharedKeywords, params, "name")
	if err != nil {
		return domain.SharedProperties{}, err
	}
	return domain.SharedProperties{Authors: authors, Keywords: keywords}, nil
}

func (idx *Index) CoAuthors(ctx context.Context, name string) ([]string, error) {
	return idx.stringColumn(ctx, "neo4j.co_authors", queryCoAuthors, map[string]any{"name": name}, "name")
}

func (idx *Index) ListAuthors(ctx context.Context) ([]string, error) {
	return idx.stringColumn(ctx, "neo4j.list_authors", queryListAuthors, nil, "name")
}

func (idx *Index) ListKeywords(ctx context.Context) ([]string, error) {
	return idx.stringColumn(ctx, "neo4j.list_keywords", queryListKeywords, nil, "name")
}

func (idx *Index) LastQuery() string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.lastQuery
}

func (idx *Index) stringColumn(ctx context.Context, operation, query string, params map[string]any, key string) ([]string, error) {
	result, err := idx.run(ctx, operation, query, params)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		if value := stringValue(record, key); value != "" {
			out = append(out, value)
		}
	}
	return out, nil
}

func (idx *Index) run(ctx context.Context, operation, query string, params map[string]any) (*neo4j.EagerResult, error) {
	idx.setLastQuery(query)

	var result *neo4j.EagerResult
	run := func(ctx context.Context) error {
		var err error
		result, err = neo4j.ExecuteQuery(ctx, idx.driver, query, params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(idx.database))
		return err
	}

	var err error
	if idx.executor != nil {
		err = idx.executor.Execute(ctx, operation, run, classifyNeo4jError)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, wrapGraphError(operation, err)
	}
	return result, nil
}

func (idx *Index) setLastQuery(query string) {
	idx.mu.Lock()
	idx.lastQuery = query
	idx.mu.Unlock()
}

func stringValue(record *neo4j.Record, key string) string {
	raw, ok := record.Get(key)
	if !ok {
		return ""
	}
	value, _ := raw.(string)
	return value
}

func lastNameOf(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
