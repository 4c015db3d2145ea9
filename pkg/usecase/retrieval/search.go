package retrieval

import (
	"context"
	"sort"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// contextSize is how many top-ranked memories are rendered into the
	// context string. The caller's limit bounds index recall only.
	contextSize = 5

	// fallbackScore is assigned to every keyword-search result when the
	// semantic path is unavailable, as rough parity with a mid-confidence
	// semantic match.
	fallbackScore = 0.5
)

// Search returns the memories most relevant to query, ranked by similarity,
// plus a context string rendered from the top matches. If the embedding call
// or the index query fails, it degrades to keyword search and never returns
// an error for that path.
func (u *UseCase) Search(ctx context.Context, userID model.UserID, query string, limit int) (*model.RetrievalResult, error) {
	if query == "" {
		return nil, goerr.New("query is empty")
	}
	if limit <= 0 {
		return nil, goerr.New("limit must be positive", goerr.V("limit", limit))
	}

	result, err := u.semanticSearch(ctx, userID, query, limit)
	if err != nil {
		logging.From(ctx).Warn("semantic search failed, falling back to keyword search",
			"error", err, "query", query)
		return u.keywordSearch(ctx, userID, query, limit), nil
	}

	return result, nil
}

func (u *UseCase) semanticSearch(ctx context.Context, userID model.UserID, query string, limit int) (*model.RetrievalResult, error) {
	vector, err := u.gemini.Embedding(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	matches, err := u.index.Query(ctx, vector, limit, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query vector index")
	}

	ids := make([]model.MemoryID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	memories, err := u.repo.GetMemoriesByIDs(ctx, userID, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch matched memories")
	}

	byID := make(map[model.MemoryID]*model.Memory, len(memories))
	for _, m := range memories {
		byID[m.ID] = m
	}

	// Matches without a store record are stale index entries; the store is
	// authoritative, so they are dropped without an error.
	scored := make([]*model.ScoredMemory, 0, len(matches))
	for _, match := range matches {
		memory, ok := byID[match.ID]
		if !ok {
			continue
		}
		scored = append(scored, &model.ScoredMemory{
			Memory: memory,
			Score:  match.Score,
		})
	}

	// Stable sort keeps the backend order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return &model.RetrievalResult{
		Memories: scored,
		Context:  renderScoredContext(scored),
	}, nil
}

// keywordSearch is the degraded path: a plain substring listing with a flat
// neutral score and a simpler context format. It must not fail; a store error
// yields an empty result.
func (u *UseCase) keywordSearch(ctx context.Context, userID model.UserID, query string, limit int) *model.RetrievalResult {
	memories, _, err := u.repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{
		Search: query,
		Limit:  limit,
	})
	if err != nil {
		logging.From(ctx).Warn("keyword search failed", "error", err, "query", query)
		return &model.RetrievalResult{Memories: []*model.ScoredMemory{}}
	}

	scored := make([]*model.ScoredMemory, len(memories))
	for i, m := range memories {
		scored[i] = &model.ScoredMemory{Memory: m, Score: fallbackScore}
	}

	return &model.RetrievalResult{
		Memories: scored,
		Context:  renderFallbackContext(memories),
	}
}
