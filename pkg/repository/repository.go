package repository

import (
	"context"

	"github.com/kioku-app/kioku/pkg/model"
)

// ListMemoriesOptions narrows a memory listing. Search matches title or
// content case-insensitively; Tags matches memories carrying at least one of
// the given tags.
type ListMemoriesOptions struct {
	Search string
	Tags   []string
	Limit  int
	Offset int
}

// DefaultListLimit applies when ListMemoriesOptions.Limit is zero.
const DefaultListLimit = 20

// Repository defines the interface for record persistence. All memory and
// history operations are owner-scoped: a record owned by another user is
// indistinguishable from a missing one.
type Repository interface {
	// PutMemory saves a memory to the repository
	PutMemory(ctx context.Context, memory *model.Memory) error

	// GetMemory retrieves a memory by ID, scoped to its owner
	GetMemory(ctx context.Context, userID model.UserID, id model.MemoryID) (*model.Memory, error)

	// GetMemoriesByIDs retrieves memories by ID in a single batched lookup.
	// IDs with no record, or records owned by another user, are skipped.
	GetMemoriesByIDs(ctx context.Context, userID model.UserID, ids []model.MemoryID) ([]*model.Memory, error)

	// ListMemories retrieves memories ordered by creation time descending,
	// returning the page and the total count after filtering
	ListMemories(ctx context.Context, userID model.UserID, opts ListMemoriesOptions) ([]*model.Memory, int, error)

	// UpdateMemory updates an existing memory
	UpdateMemory(ctx context.Context, memory *model.Memory) error

	// DeleteMemory removes a memory, scoped to its owner
	DeleteMemory(ctx context.Context, userID model.UserID, id model.MemoryID) error

	// PutHistory saves conversation history metadata
	PutHistory(ctx context.Context, history *model.History) error

	// GetHistory retrieves conversation history metadata by ID
	GetHistory(ctx context.Context, userID model.UserID, id model.HistoryID) (*model.History, error)

	// PutUser saves a user account
	PutUser(ctx context.Context, user *model.User) error

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)

	// GetUserByEmail retrieves a user by email address
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
