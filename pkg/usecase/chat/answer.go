package chat

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPromptRaw string

const (
	answerRetrievalLimit = 8
	answerTemperature    = float32(0.7)
	answerMaxTokens      = int32(1000)

	// citationMinScore is exclusive: a memory scoring exactly the threshold
	// is not cited.
	citationMinScore = 0.7
	maxCitations     = 5

	apologyText       = "I apologize, but I encountered an error while processing your request. Please try again."
	emptyResponseText = "I apologize, but I was unable to generate a response."
)

// Answer produces a grounded answer to message with citations into the
// user's memories. History is the prior turns oldest first; citations on
// past turns are not replayed. Any downstream failure yields the fixed
// apology with no citations instead of an error.
func (u *UseCase) Answer(ctx context.Context, userID model.UserID, message string, history []model.ChatTurn) *model.Answer {
	answer, err := u.answer(ctx, userID, message, history)
	if err != nil {
		logging.From(ctx).Warn("chat answer failed", "error", err, "user_id", userID)
		return &model.Answer{
			Text:      apologyText,
			Citations: []model.Citation{},
		}
	}
	return answer
}

func (u *UseCase) answer(ctx context.Context, userID model.UserID, message string, history []model.ChatTurn) (*model.Answer, error) {
	if message == "" {
		return nil, goerr.New("message is empty")
	}

	// Retrieval must complete before generation: the system instruction
	// embeds the context block.
	result, err := u.retrieval.Search(ctx, userID, message, answerRetrievalLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to retrieve memories")
	}

	systemPrompt := fmt.Sprintf(systemPromptRaw, result.Context)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == model.ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	temperature := answerTemperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		Temperature:       &temperature,
		MaxOutputTokens:   answerMaxTokens,
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}

	text := extractText(resp)
	if text == "" {
		text = emptyResponseText
	}

	return &model.Answer{
		Text:      text,
		Citations: buildCitations(result),
	}, nil
}

// extractText joins multi-part payloads with a single space
func extractText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, " ")
}

// buildCitations keeps only highly relevant memories, capped at maxCitations.
// The retrieval result is already sorted by descending score.
func buildCitations(result *model.RetrievalResult) []model.Citation {
	citations := make([]model.Citation, 0, maxCitations)
	for _, m := range result.Memories {
		if m.Score <= citationMinScore {
			continue
		}
		citations = append(citations, model.Citation{
			ID:    m.ID,
			Title: m.Title,
			Score: m.Score,
		})
		if len(citations) >= maxCitations {
			break
		}
	}
	return citations
}
