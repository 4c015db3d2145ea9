package memory

import (
	"context"

	"github.com/kioku-app/kioku/pkg/adapter"
	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

// UseCase provides memory lifecycle operations: create, read, update, delete
// and listing, plus the embedding upkeep that keeps the vector index in sync
// with the record store.
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
	index  adapter.VectorIndex
}

// New creates a new memory UseCase instance
func New(repo repository.Repository, gemini adapter.Gemini, index adapter.VectorIndex) *UseCase {
	return &UseCase{
		repo:   repo,
		gemini: gemini,
		index:  index,
	}
}

// indexMemory embeds the memory text, upserts the vector and attaches the
// resulting embedding ID to the record. The embedding input is title and
// content joined by a space.
func (u *UseCase) indexMemory(ctx context.Context, memory *model.Memory) error {
	vector, err := u.gemini.Embedding(ctx, memory.Title+" "+memory.Content)
	if err != nil {
		return goerr.Wrap(err, "failed to embed memory", goerr.V("memory_id", memory.ID))
	}

	embeddingID, err := u.index.Upsert(ctx, memory.ID, vector, &adapter.VectorMetadata{
		UserID:    memory.UserID,
		Title:     memory.Title,
		Content:   memory.Content,
		Tags:      memory.Tags,
		CreatedAt: memory.CreatedAt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert vector", goerr.V("memory_id", memory.ID))
	}

	memory.EmbeddingID = embeddingID
	if err := u.repo.UpdateMemory(ctx, memory); err != nil {
		return goerr.Wrap(err, "failed to attach embedding id", goerr.V("memory_id", memory.ID))
	}

	return nil
}
