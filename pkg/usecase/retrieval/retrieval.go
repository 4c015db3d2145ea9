package retrieval

import (
	"github.com/kioku-app/kioku/pkg/adapter"
	"github.com/kioku-app/kioku/pkg/repository"
)

// UseCase answers "given a user and a query, return the most relevant
// memories, ranked, with a textual context block".
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
	index  adapter.VectorIndex
}

// New creates a new retrieval UseCase instance
func New(repo repository.Repository, gemini adapter.Gemini, index adapter.VectorIndex) *UseCase {
	return &UseCase{
		repo:   repo,
		gemini: gemini,
		index:  index,
	}
}
