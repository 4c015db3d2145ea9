package memory

import (
	"context"
	"time"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// CreateInput contains the user-provided fields of a new memory
type CreateInput struct {
	Title   string
	Content string
	URL     string
	Tags    []string
}

// Create stores a new memory and indexes it for semantic search. The store
// write is synchronous; the embedding step is awaited but non-fatal, so a
// failed embedding leaves the memory persisted without an EmbeddingID until
// a reindex succeeds.
func (u *UseCase) Create(ctx context.Context, userID model.UserID, input CreateInput) (*model.Memory, error) {
	now := time.Now()
	memory := &model.Memory{
		ID:        model.NewMemoryID(),
		Title:     input.Title,
		Content:   input.Content,
		URL:       input.URL,
		Tags:      input.Tags,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if memory.Tags == nil {
		memory.Tags = []string{}
	}

	if err := memory.Validate(); err != nil {
		return nil, err
	}

	if err := u.repo.PutMemory(ctx, memory); err != nil {
		return nil, goerr.Wrap(err, "failed to save memory")
	}

	if err := u.indexMemory(ctx, memory); err != nil {
		logging.From(ctx).Warn("failed to index new memory, continuing without embedding",
			"error", err, "memory_id", memory.ID)
	}

	return memory, nil
}
