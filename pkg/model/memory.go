package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrMemoryNotFound = goerr.New("memory not found")
	ErrInvalidMemory  = goerr.New("invalid memory")
)

const (
	// MaxTitleLength is the maximum allowed length of a memory title.
	MaxTitleLength = 200
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Memory represents a user-owned note in the knowledge base.
// EmbeddingID stays empty until the vector upsert succeeds; a memory without
// an EmbeddingID is excluded from semantic search until reindexed.
type Memory struct {
	ID          MemoryID
	Title       string
	Content     string
	URL         string
	Tags        []string
	UserID      UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	EmbeddingID string
}

// Validate checks the memory against creation constraints
func (m *Memory) Validate() error {
	if m.Title == "" {
		return goerr.Wrap(ErrInvalidMemory, "title is empty")
	}
	if len(m.Title) > MaxTitleLength {
		return goerr.Wrap(ErrInvalidMemory, "title is too long", goerr.V("length", len(m.Title)))
	}
	if m.Content == "" {
		return goerr.Wrap(ErrInvalidMemory, "content is empty")
	}
	if m.UserID == "" {
		return goerr.Wrap(ErrInvalidMemory, "user id is empty")
	}
	return nil
}

// ScoredMemory annotates a Memory with a relevance score in [0,1] for a
// single query. Produced only during retrieval and never persisted.
type ScoredMemory struct {
	*Memory
	Score float64
}

// RetrievalResult is the output of one retrieval operation: all scored
// memories ordered by descending score, plus the context string rendered
// from the most relevant ones.
type RetrievalResult struct {
	Memories []*ScoredMemory
	Context  string
}
