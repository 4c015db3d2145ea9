package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/m-mizutani/gt"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)

	return repo
}

func newTestMemory(userID model.UserID, title, content string, tags ...string) *model.Memory {
	now := time.Now()
	if tags == nil {
		tags = []string{}
	}
	return &model.Memory{
		ID:        model.NewMemoryID(),
		Title:     title,
		Content:   content,
		Tags:      tags,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFirestorePutGetMemory(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	userID := model.NewUserID()

	memory := newTestMemory(userID, "Test memory", "some content", "test")
	gt.NoError(t, repo.PutMemory(ctx, memory))

	got, err := repo.GetMemory(ctx, userID, memory.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ID, memory.ID)
	gt.Equal(t, got.Title, "Test memory")
	gt.Equal(t, got.Tags, []string{"test"})
}

func TestFirestoreOwnershipScope(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	owner := model.NewUserID()
	other := model.NewUserID()

	memory := newTestMemory(owner, "Private", "content")
	gt.NoError(t, repo.PutMemory(ctx, memory))

	// A foreign memory is indistinguishable from a missing one.
	_, err := repo.GetMemory(ctx, other, memory.ID)
	gt.Error(t, err)

	err = repo.DeleteMemory(ctx, other, memory.ID)
	gt.Error(t, err)

	got, err := repo.GetMemory(ctx, owner, memory.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ID, memory.ID)
}

func TestFirestoreListMemories(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	userID := model.NewUserID()

	for i := 0; i < 3; i++ {
		m := newTestMemory(userID, fmt.Sprintf("Note %d", i), "listing content")
		m.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if i == 0 {
			m.Tags = []string{"special"}
		}
		gt.NoError(t, repo.PutMemory(ctx, m))
	}

	t.Run("newest first", func(t *testing.T) {
		items, total, err := repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{})
		gt.NoError(t, err)
		gt.Equal(t, total, 3)
		gt.A(t, items).Length(3)
		gt.Equal(t, items[0].Title, "Note 2")
	})

	t.Run("search filter", func(t *testing.T) {
		items, total, err := repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{
			Search: "note 1",
		})
		gt.NoError(t, err)
		gt.Equal(t, total, 1)
		gt.A(t, items).Length(1)
	})

	t.Run("tag filter", func(t *testing.T) {
		items, total, err := repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{
			Tags: []string{"special"},
		})
		gt.NoError(t, err)
		gt.Equal(t, total, 1)
		gt.Equal(t, items[0].Title, "Note 0")
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{
			Limit:  2,
			Offset: 2,
		})
		gt.NoError(t, err)
		gt.Equal(t, total, 3)
		gt.A(t, items).Length(1)
	})
}

func TestFirestoreGetMemoriesByIDs(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	userID := model.NewUserID()

	m1 := newTestMemory(userID, "First", "content")
	m2 := newTestMemory(userID, "Second", "content")
	foreign := newTestMemory(model.NewUserID(), "Foreign", "content")
	gt.NoError(t, repo.PutMemory(ctx, m1))
	gt.NoError(t, repo.PutMemory(ctx, m2))
	gt.NoError(t, repo.PutMemory(ctx, foreign))

	items, err := repo.GetMemoriesByIDs(ctx, userID, []model.MemoryID{
		m1.ID, m2.ID, foreign.ID, model.NewMemoryID(),
	})
	gt.NoError(t, err)

	// Missing and foreign IDs are skipped, not errors.
	gt.A(t, items).Length(2)
}

func TestFirestoreUpdateMemory(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	userID := model.NewUserID()

	memory := newTestMemory(userID, "Before", "content")
	gt.NoError(t, repo.PutMemory(ctx, memory))

	memory.Title = "After"
	memory.EmbeddingID = "vec-123"
	memory.UpdatedAt = time.Now()
	gt.NoError(t, repo.UpdateMemory(ctx, memory))

	got, err := repo.GetMemory(ctx, userID, memory.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Title, "After")
	gt.Equal(t, got.EmbeddingID, "vec-123")
}

func TestFirestoreUsers(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	user := &model.User{
		ID:           model.NewUserID(),
		Email:        fmt.Sprintf("%s@example.com", model.NewUserID()),
		Name:         "Tester",
		PasswordHash: "hashed",
		CreatedAt:    time.Now(),
	}
	gt.NoError(t, repo.PutUser(ctx, user))

	byID, err := repo.GetUser(ctx, user.ID)
	gt.NoError(t, err)
	gt.Equal(t, byID.Email, user.Email)

	byEmail, err := repo.GetUserByEmail(ctx, user.Email)
	gt.NoError(t, err)
	gt.Equal(t, byEmail.ID, user.ID)

	_, err = repo.GetUserByEmail(ctx, "missing@example.com")
	gt.Error(t, err)
}

func TestFirestoreHistories(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	userID := model.NewUserID()

	history := &model.History{
		ID:        model.NewHistoryID(),
		UserID:    userID,
		Title:     "Test conversation",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutHistory(ctx, history))

	got, err := repo.GetHistory(ctx, userID, history.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Title, "Test conversation")

	_, err = repo.GetHistory(ctx, model.NewUserID(), history.ID)
	gt.Error(t, err)
}
