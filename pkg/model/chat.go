package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var ErrHistoryNotFound = goerr.New("history not found")

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// Citation points at a memory that grounded part of an answer.
type Citation struct {
	ID    MemoryID `json:"id"`
	Title string   `json:"title"`
	Score float64  `json:"score"`
}

// ChatTurn is one exchange in a conversation. Citations are set only on
// assistant turns and are not replayed into subsequent prompts.
type ChatTurn struct {
	Role      ChatRole   `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
}

// Answer is the result of one chat exchange.
type Answer struct {
	Text      string
	Citations []Citation
}

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// History represents a stored conversation. Only the metadata lives in the
// record store; the full turn transcript is kept in object storage because of
// document size limits.
type History struct {
	ID        HistoryID
	UserID    UserID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Turns []ChatTurn `firestore:"-"`
}
