package memory

import (
	"context"
	"time"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// UpdateInput carries the fields to change; nil fields are left as-is.
type UpdateInput struct {
	Title   *string
	Content *string
	URL     *string
	Tags    *[]string
}

// Update modifies a memory owned by userID. Re-embedding happens only when
// the title or content changed; tag and URL updates leave the vector alone.
func (u *UseCase) Update(ctx context.Context, userID model.UserID, id model.MemoryID, input UpdateInput) (*model.Memory, error) {
	memory, err := u.repo.GetMemory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	reembed := false
	if input.Title != nil && *input.Title != memory.Title {
		memory.Title = *input.Title
		reembed = true
	}
	if input.Content != nil && *input.Content != memory.Content {
		memory.Content = *input.Content
		reembed = true
	}
	if input.URL != nil {
		memory.URL = *input.URL
	}
	if input.Tags != nil {
		memory.Tags = *input.Tags
	}
	memory.UpdatedAt = time.Now()

	if err := memory.Validate(); err != nil {
		return nil, err
	}

	if err := u.repo.UpdateMemory(ctx, memory); err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V("memory_id", id))
	}

	if reembed {
		if err := u.indexMemory(ctx, memory); err != nil {
			logging.From(ctx).Warn("failed to reindex updated memory",
				"error", err, "memory_id", memory.ID)
		}
	}

	return memory, nil
}
