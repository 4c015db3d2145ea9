package memory

import (
	"context"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/utils/logging"
)

// Delete removes a memory and, if present, its vector entry. The vector
// delete is best effort: a failure there is logged and must not block
// removing the store record.
func (u *UseCase) Delete(ctx context.Context, userID model.UserID, id model.MemoryID) error {
	memory, err := u.repo.GetMemory(ctx, userID, id)
	if err != nil {
		return err
	}

	if memory.EmbeddingID != "" {
		if err := u.index.Delete(ctx, id); err != nil {
			logging.From(ctx).Warn("failed to delete vector, removing record anyway",
				"error", err, "memory_id", id)
		}
	}

	return u.repo.DeleteMemory(ctx, userID, id)
}
