package chat

import (
	"github.com/kioku-app/kioku/pkg/adapter"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/usecase/retrieval"
)

// UseCase answers user questions grounded in their stored memories and
// produces summaries of the knowledge base. Both operations degrade to fixed
// textual responses on any downstream failure; the conversational surface
// never returns a hard error to the end user.
type UseCase struct {
	repo      repository.Repository
	gemini    adapter.Gemini
	retrieval *retrieval.UseCase
	storage   adapter.Storage
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStorage enables transcript persistence for chat sessions
func WithStorage(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = storage
	}
}

// New creates a new chat UseCase instance
func New(
	repo repository.Repository,
	gemini adapter.Gemini,
	retrievalUC *retrieval.UseCase,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:      repo,
		gemini:    gemini,
		retrieval: retrievalUC,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
