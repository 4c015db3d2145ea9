package memory

import (
	"context"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
)

// Get retrieves a single memory owned by userID
func (u *UseCase) Get(ctx context.Context, userID model.UserID, id model.MemoryID) (*model.Memory, error) {
	return u.repo.GetMemory(ctx, userID, id)
}

// List retrieves memories owned by userID with optional search and tag
// filters, newest first. Returns the page and the total count.
func (u *UseCase) List(ctx context.Context, userID model.UserID, opts repository.ListMemoriesOptions) ([]*model.Memory, int, error) {
	return u.repo.ListMemories(ctx, userID, opts)
}
