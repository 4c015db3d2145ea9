package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

func transcriptKey(id model.HistoryID) string {
	return fmt.Sprintf("transcripts/%s.json", id)
}

// SaveSession persists a conversation: metadata in the record store, the
// full turn transcript in object storage.
func (u *UseCase) SaveSession(ctx context.Context, userID model.UserID, title string, turns []model.ChatTurn) (*model.History, error) {
	if u.storage == nil {
		return nil, goerr.New("transcript storage is not configured")
	}
	if len(turns) == 0 {
		return nil, goerr.New("no turns to save")
	}

	now := time.Now()
	history := &model.History{
		ID:        model.NewHistoryID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Turns:     turns,
	}

	if err := u.repo.PutHistory(ctx, history); err != nil {
		return nil, goerr.Wrap(err, "failed to save history")
	}

	w, err := u.storage.Put(ctx, transcriptKey(history.ID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open transcript writer")
	}
	if err := json.NewEncoder(w).Encode(turns); err != nil {
		_ = w.Close()
		return nil, goerr.Wrap(err, "failed to encode transcript")
	}
	if err := w.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close transcript writer")
	}

	return history, nil
}

// LoadSession restores a conversation with its full transcript.
func (u *UseCase) LoadSession(ctx context.Context, userID model.UserID, id model.HistoryID) (*model.History, error) {
	if u.storage == nil {
		return nil, goerr.New("transcript storage is not configured")
	}

	history, err := u.repo.GetHistory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	r, err := u.storage.Get(ctx, transcriptKey(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open transcript reader")
	}
	defer r.Close()

	if err := json.NewDecoder(r).Decode(&history.Turns); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript")
	}

	return history, nil
}
