package repository

import (
	"context"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/kioku-app/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionMemories  = "memories"
	collectionHistories = "histories"
	collectionUsers     = "users"
)

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutMemory(ctx context.Context, memory *model.Memory) error {
	doc := r.client.Collection(collectionMemories).Doc(string(memory.ID))
	if _, err := doc.Set(ctx, memory); err != nil {
		return goerr.Wrap(err, "failed to put memory", goerr.V("memory_id", memory.ID))
	}
	return nil
}

func (r *Firestore) GetMemory(ctx context.Context, userID model.UserID, id model.MemoryID) (*model.Memory, error) {
	snap, err := r.client.Collection(collectionMemories).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrMemoryNotFound, "no such memory", goerr.V("memory_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}

	var memory model.Memory
	if err := snap.DataTo(&memory); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("memory_id", id))
	}

	// Ownership mismatch is reported as not-found so that foreign IDs are
	// indistinguishable from missing ones.
	if memory.UserID != userID {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "no such memory", goerr.V("memory_id", id))
	}

	return &memory, nil
}

func (r *Firestore) GetMemoriesByIDs(ctx context.Context, userID model.UserID, ids []model.MemoryID) ([]*model.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.client.Collection(collectionMemories).Doc(string(id))
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to batch get memories")
	}

	memories := make([]*model.Memory, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var memory model.Memory
		if err := snap.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("doc", snap.Ref.ID))
		}
		if memory.UserID != userID {
			continue
		}
		memories = append(memories, &memory)
	}

	return memories, nil
}

func (r *Firestore) ListMemories(ctx context.Context, userID model.UserID, opts ListMemoriesOptions) ([]*model.Memory, int, error) {
	// Firestore has no substring operator, so only the owner predicate runs
	// server-side; search and tag filters are applied in process.
	iter := r.client.Collection(collectionMemories).
		Where("UserID", "==", string(userID)).
		Documents(ctx)
	defer iter.Stop()

	var memories []*model.Memory
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate memories")
		}

		var memory model.Memory
		if err := snap.DataTo(&memory); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to decode memory", goerr.V("doc", snap.Ref.ID))
		}

		if !matchesSearch(&memory, opts.Search) || !matchesTags(&memory, opts.Tags) {
			continue
		}
		memories = append(memories, &memory)
	}

	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})

	total := len(memories)

	offset := opts.Offset
	if offset > total {
		offset = total
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return memories[offset:end], total, nil
}

func matchesSearch(memory *model.Memory, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(memory.Title), needle) ||
		strings.Contains(strings.ToLower(memory.Content), needle)
}

func matchesTags(memory *model.Memory, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range memory.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (r *Firestore) UpdateMemory(ctx context.Context, memory *model.Memory) error {
	doc := r.client.Collection(collectionMemories).Doc(string(memory.ID))
	if _, err := doc.Set(ctx, memory); err != nil {
		return goerr.Wrap(err, "failed to update memory", goerr.V("memory_id", memory.ID))
	}
	return nil
}

func (r *Firestore) DeleteMemory(ctx context.Context, userID model.UserID, id model.MemoryID) error {
	if _, err := r.GetMemory(ctx, userID, id); err != nil {
		return err
	}

	if _, err := r.client.Collection(collectionMemories).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memory_id", id))
	}
	return nil
}

func (r *Firestore) PutHistory(ctx context.Context, history *model.History) error {
	doc := r.client.Collection(collectionHistories).Doc(string(history.ID))
	if _, err := doc.Set(ctx, history); err != nil {
		return goerr.Wrap(err, "failed to put history", goerr.V("history_id", history.ID))
	}
	return nil
}

func (r *Firestore) GetHistory(ctx context.Context, userID model.UserID, id model.HistoryID) (*model.History, error) {
	snap, err := r.client.Collection(collectionHistories).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrHistoryNotFound, "no such history", goerr.V("history_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get history", goerr.V("history_id", id))
	}

	var history model.History
	if err := snap.DataTo(&history); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history", goerr.V("history_id", id))
	}
	if history.UserID != userID {
		return nil, goerr.Wrap(model.ErrHistoryNotFound, "no such history", goerr.V("history_id", id))
	}

	return &history, nil
}

func (r *Firestore) PutUser(ctx context.Context, user *model.User) error {
	doc := r.client.Collection(collectionUsers).Doc(string(user.ID))
	if _, err := doc.Set(ctx, user); err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("user_id", user.ID))
	}
	return nil
}

func (r *Firestore) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	snap, err := r.client.Collection(collectionUsers).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrUserNotFound, "no such user", goerr.V("user_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", id))
	}

	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("user_id", id))
	}
	return &user, nil
}

func (r *Firestore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	iter := r.client.Collection(collectionUsers).
		Where("Email", "==", email).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(model.ErrUserNotFound, "no such user", goerr.V("email", email))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user by email")
	}

	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user")
	}
	return &user, nil
}
