// Package kb provides a similarity-searchable in-memory index over
// knowledge-base articles, scoped by organization. The index is built once
// at process start from a snapshot of the article table and is immutable
// afterwards (safe for concurrent use); article edits are picked up only on
// restart.
//
// Design:
//   - No logging in the library (callers decide how/what to log)
//   - Embeddings behind a small Embedder interface so tests can fake them
//   - Functional options for the result cap and an optional score floor
//   - Deterministic ordering (stable sort, ties broken by article id)
//
// Scoring uses cosine similarity between the query embedding and each
// article's embedding; vectors are L2-normalized at build time so the
// similarity reduces to a dot product.
package kb

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
)

// Embedder turns texts into embedding vectors. Implementations must return
// one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Article is the indexed, read-only projection of a knowledge-base article
// returned by searches.
type Article struct {
	ID             string
	Title          string
	Category       string
	OrganizationID string
	Content        string // HTML stripped to plain text
	Score          float64
}

// Document is the raw input to BuildIndex.
type Document struct {
	ID             string
	Title          string
	Category       string
	OrganizationID string
	HTML           string
}

// Index is the read surface of the knowledge-base index.
type Index interface {
	// FindRelevantArticles embeds query and returns up to the configured
	// number of nearest articles whose owning organization is orgID or the
	// global organization.
	FindRelevantArticles(ctx context.Context, query, orgID string) ([]Article, error)

	// Len reports the number of indexed articles.
	Len() int
}

// ----------------------------------------------------------------------------
// Options

// Option customizes index construction.
type Option func(*options)

type options struct {
	topK        int
	minScore    float64
	globalOrgID string
	batchSize   int
}

func defaultOptions() options {
	return options{topK: 3, minScore: 0, batchSize: 64}
}

// WithTopK caps the number of results per query. Values < 1 are ignored.
func WithTopK(k int) Option {
	return func(o *options) {
		if k >= 1 {
			o.topK = k
		}
	}
}

// WithMinScore sets a similarity floor below which articles are dropped.
// The default of 0 keeps every hit, mirroring the original system's
// unconditional top-3 behavior.
func WithMinScore(f float64) Option {
	return func(o *options) {
		if f >= 0 {
			o.minScore = f
		}
	}
}

// WithGlobalOrg sets the sentinel organization whose articles every tenant
// can retrieve.
func WithGlobalOrg(id string) Option {
	return func(o *options) { o.globalOrgID = id }
}

// WithBatchSize sets how many documents are embedded per provider call.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.batchSize = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type entry struct {
	art Article
	vec []float32
}

type index struct {
	opts     options
	embedder Embedder
	entries  []entry
}

// BuildIndex embeds every document and returns an immutable Index. Article
// HTML is flattened to text and the "{kbtitle}" placeholder is substituted
// with the title before embedding, so the title contributes to retrieval.
func BuildIndex(ctx context.Context, docs []Document, e Embedder, opts ...Option) (Index, error) {
	if e == nil {
		return nil, errors.New("kb: embedder is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	entries := make([]entry, 0, len(docs))
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		content := strings.ReplaceAll(d.HTML, "{kbtitle}", d.Title)
		text := StripHTML(content)
		if strings.TrimSpace(text) == "" {
			continue
		}
		entries = append(entries, entry{art: Article{
			ID:             d.ID,
			Title:          d.Title,
			Category:       d.Category,
			OrganizationID: d.OrganizationID,
			Content:        text,
		}})
		texts = append(texts, text)
	}

	for start := 0; start < len(texts); start += o.batchSize {
		end := start + o.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, errors.New("kb: embedder returned wrong vector count")
		}
		for i, v := range vecs {
			entries[start+i].vec = normalize(v)
		}
	}

	return &index{opts: o, embedder: e, entries: entries}, nil
}

// Len reports the number of indexed articles.
func (ix *index) Len() int { return len(ix.entries) }

// FindRelevantArticles implements Index.
func (ix *index) FindRelevantArticles(ctx context.Context, query, orgID string) ([]Article, error) {
	if strings.TrimSpace(query) == "" || len(ix.entries) == 0 {
		return nil, nil
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("kb: embedder returned wrong vector count")
	}
	q := normalize(vecs[0])

	scored := make([]Article, 0, len(ix.entries))
	for _, e := range ix.entries {
		if e.art.OrganizationID != orgID && e.art.OrganizationID != ix.opts.globalOrgID {
			continue
		}
		score := dot(q, e.vec)
		if score < ix.opts.minScore {
			continue
		}
		a := e.art
		a.Score = score
		scored = append(scored, a)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > ix.opts.topK {
		scored = scored[:ix.opts.topK]
	}
	return scored, nil
}

// ----------------------------------------------------------------------------
// Vector helpers

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
