package chat

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/usecase/retrieval"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

const (
	summarizeRetrievalLimit = 10
	summarizeRecentLimit    = 50
	summarizeTemperature    = float32(0.5)
	summarizeMaxTokens      = int32(1500)

	emptySummaryText = "Unable to generate summary."
	summaryErrorText = "Error generating summary. Please try again."
)

// Summarize produces a summary of the user's knowledge base. With a query it
// summarizes the memories retrieved for it; without one it covers the most
// recent memories. Failures yield a fixed error string, never a hard error.
func (u *UseCase) Summarize(ctx context.Context, userID model.UserID, query string) string {
	summary, err := u.summarize(ctx, userID, query)
	if err != nil {
		logging.From(ctx).Warn("summarize failed", "error", err, "user_id", userID)
		return summaryErrorText
	}
	return summary
}

func (u *UseCase) summarize(ctx context.Context, userID model.UserID, query string) (string, error) {
	var contextBlock string
	if query != "" {
		result, err := u.retrieval.Search(ctx, userID, query, summarizeRetrievalLimit)
		if err != nil {
			return "", goerr.Wrap(err, "failed to retrieve memories for summary")
		}
		contextBlock = result.Context
	} else {
		memories, _, err := u.repo.ListMemories(ctx, userID, repository.ListMemoriesOptions{
			Limit: summarizeRecentLimit,
		})
		if err != nil {
			return "", goerr.Wrap(err, "failed to list memories for summary")
		}
		contextBlock = retrieval.RenderContext(memories)
	}

	var scope string
	if query != "" {
		scope = fmt.Sprintf(" related to %q", query)
	}
	prompt := fmt.Sprintf(summarizePromptRaw, scope, contextBlock)

	temperature := summarizeTemperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: summarizeMaxTokens,
	}

	// Single-turn prompt: no history is replayed into summaries.
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	text := extractText(resp)
	if text == "" {
		return emptySummaryText, nil
	}
	return text, nil
}
