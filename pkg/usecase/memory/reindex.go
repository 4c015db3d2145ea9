package memory

import (
	"context"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Reindex retries embedding for memories that have no vector entry yet,
// typically after a provider outage at create time. Returns how many
// memories were indexed.
func (u *UseCase) Reindex(ctx context.Context, userID model.UserID) (int, error) {
	var indexed int
	offset := 0

	for {
		memories, total, err := u.repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{
			Limit:  repository.DefaultListLimit,
			Offset: offset,
		})
		if err != nil {
			return indexed, goerr.Wrap(err, "failed to list memories for reindex")
		}

		for _, memory := range memories {
			if memory.EmbeddingID != "" {
				continue
			}
			if err := u.indexMemory(ctx, memory); err != nil {
				logging.From(ctx).Warn("failed to reindex memory",
					"error", err, "memory_id", memory.ID)
				continue
			}
			indexed++
		}

		offset += len(memories)
		if offset >= total || len(memories) == 0 {
			break
		}
	}

	return indexed, nil
}
