package chat_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kioku-app/kioku/pkg/adapter"
	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/usecase/chat"
	"github.com/kioku-app/kioku/pkg/usecase/retrieval"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type mockGemini struct {
	generateFunc  func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embeddingFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contents, config)
	}
	return genaiResponse("ok"), nil
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	if m.embeddingFunc != nil {
		return m.embeddingFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type mockIndex struct {
	queryFunc func(ctx context.Context, vector []float32, topK int, userID model.UserID) ([]*adapter.VectorMatch, error)
}

func (m *mockIndex) Upsert(ctx context.Context, id model.MemoryID, vector []float32, meta *adapter.VectorMetadata) (string, error) {
	return string(id), nil
}

func (m *mockIndex) Query(ctx context.Context, vector []float32, topK int, userID model.UserID) ([]*adapter.VectorMatch, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, vector, topK, userID)
	}
	return nil, nil
}

func (m *mockIndex) Delete(ctx context.Context, id model.MemoryID) error {
	return nil
}

type mockRepo struct {
	repository.Repository
	getByIDsFunc   func(ctx context.Context, userID model.UserID, ids []model.MemoryID) ([]*model.Memory, error)
	listFunc       func(ctx context.Context, userID model.UserID, opts repository.ListMemoriesOptions) ([]*model.Memory, int, error)
	putHistoryFunc func(ctx context.Context, history *model.History) error
	getHistoryFunc func(ctx context.Context, userID model.UserID, id model.HistoryID) (*model.History, error)
}

func (m *mockRepo) GetMemoriesByIDs(ctx context.Context, userID model.UserID, ids []model.MemoryID) ([]*model.Memory, error) {
	return m.getByIDsFunc(ctx, userID, ids)
}

func (m *mockRepo) ListMemories(ctx context.Context, userID model.UserID, opts repository.ListMemoriesOptions) ([]*model.Memory, int, error) {
	return m.listFunc(ctx, userID, opts)
}

func (m *mockRepo) PutHistory(ctx context.Context, history *model.History) error {
	return m.putHistoryFunc(ctx, history)
}

func (m *mockRepo) GetHistory(ctx context.Context, userID model.UserID, id model.HistoryID) (*model.History, error) {
	return m.getHistoryFunc(ctx, userID, id)
}

func genaiResponse(parts ...string) *genai.GenerateContentResponse {
	var ps []*genai.Part
	for _, text := range parts {
		ps = append(ps, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: ps}},
		},
	}
}

func testMemory(id model.MemoryID, userID model.UserID, title, content string) *model.Memory {
	return &model.Memory{
		ID:        id,
		Title:     title,
		Content:   content,
		Tags:      []string{},
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// newChatUseCase wires a chat use case over mocked dependencies. The index
// returns the given matches and the repo serves the given memories.
func newChatUseCase(gemini *mockGemini, matches []*adapter.VectorMatch, memories []*model.Memory) *chat.UseCase {
	repo := &mockRepo{
		getByIDsFunc: func(ctx context.Context, userID model.UserID, ids []model.MemoryID) ([]*model.Memory, error) {
			return memories, nil
		},
		listFunc: func(ctx context.Context, userID model.UserID, opts repository.ListMemoriesOptions) ([]*model.Memory, int, error) {
			return memories, len(memories), nil
		},
	}
	index := &mockIndex{
		queryFunc: func(ctx context.Context, vector []float32, topK int, userID model.UserID) ([]*adapter.VectorMatch, error) {
			return matches, nil
		},
	}
	retrievalUC := retrieval.New(repo, gemini, index)
	return chat.New(repo, gemini, retrievalUC)
}

func TestAnswerCitations(t *testing.T) {
	ctx := context.Background()
	userID := model.UserID("user-1")

	memories := []*model.Memory{
		testMemory("mem-1", userID, "Paris trip", "Visited the Louvre"),
		testMemory("mem-2", userID, "Grocery list", "Eggs and milk"),
	}
	matches := []*adapter.VectorMatch{
		{ID: "mem-1", Score: 0.9},
		{ID: "mem-2", Score: 0.6},
	}

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return genaiResponse("You visited the Louvre on your Paris trip."), nil
		},
	}

	uc := newChatUseCase(gemini, matches, memories)

	answer := uc.Answer(ctx, userID, "What did I do in Paris?", nil)
	gt.V(t, answer).NotNil()
	gt.S(t, answer.Text).Contains("Louvre")

	// Only the memory above the relevance threshold is cited.
	gt.A(t, answer.Citations).Length(1)
	gt.Equal(t, answer.Citations[0].ID, model.MemoryID("mem-1"))
	gt.Equal(t, answer.Citations[0].Title, "Paris trip")
	gt.Equal(t, answer.Citations[0].Score, 0.9)
}

func TestAnswerCitationThresholdIsExclusive(t *testing.T) {
	ctx := context.Background()
	userID := model.UserID("user-1")

	memories := []*model.Memory{
		testMemory("mem-1", userID, "Borderline", "exactly at threshold"),
	}
	matches := []*adapter.VectorMatch{
		{ID: "mem-1", Score: 0.7},
	}

	uc := newChatUseCase(&mockGemini{}, matches, memories)

	answer := uc.Answer(ctx, userID, "question", nil)
	gt.A(t, answer.Citations).Length(0)
}

func TestAnswerCitationCap(t *testing.T) {
	ctx := context.Background()
	userID := model.UserID("user-1")

	var memories []*model.Memory
	var matches []*adapter.VectorMatch
	for i := 0; i < 7; i++ {
		id := model.MemoryID(fmt.Sprintf("mem-%d", i))
		memories = append(memories, testMemory(id, userID, fmt.Sprintf("Note %d", i), "content"))
		matches = append(matches, &adapter.VectorMatch{ID: id, Score: 0.95 - float64(i)*0.01})
	}

	uc := newChatUseCase(&mockGemini{}, matches, memories)

	answer := uc.Answer(ctx, userID, "question", nil)
	gt.A(t, answer.Citations).Length(5)
	gt.Equal(t, answer.Citations[0].Score, 0.95)
}

func TestAnswerGenerationFailure(t *testing.T) {
	ctx := context.Background()
	userID := model.UserID("user-1")

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("model unavailable")
		},
	}

	uc := newChatUseCase(gemini, nil, nil)

	answer := uc.Answer(ctx, userID, "question", nil)
	gt.V(t, answer).NotNil()
	gt.Equal(t, answer.Text, "I apologize, but I encountered an error while processing your request. Please try again.")
	gt.A(t, answer.Citations).Length(0)
}

func TestAnswerEmptyResponse(t *testing.T) {
	ctx := context.Background()
	userID := model.UserID("user-1")

	memories := []*model.Memory{
		testMemory("mem-1", userID, "Paris trip", "Visited the Louvre"),
	}
	matches := []*adapter.VectorMatch{{ID: "mem-1", Score: 0.9}}

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}

	uc := newChatUseCase(gemini, matches, memories)

	answer := uc.Answer(ctx, userID, "question", nil)
	gt.Equal(t, answer.Text, "I apologize, but I was unable to generate a response.")

	// Citations are still computed from retrieval even when the model
	// returns nothing.
	gt.A(t, answer.Citations).Length(1)
}

func TestAnswerMultiPartResponse(t *testing.T) {
	ctx := context.Background()

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return genaiResponse("First part.", "Second part."), nil
		},
	}

	uc := newChatUseCase(gemini, nil, nil)

	answer := uc.Answer(ctx, "user-1", "question", nil)
	gt.Equal(t, answer.Text, "First part. Second part.")
}

func TestAnswerEmptyMessage(t *testing.T) {
	ctx := context.Background()
	uc := newChatUseCase(&mockGemini{}, nil, nil)

	answer := uc.Answer(ctx, "user-1", "", nil)
	gt.Equal(t, answer.Text, "I apologize, but I encountered an error while processing your request. Please try again.")
}

func TestAnswerPromptAssembly(t *testing.T) {
	ctx := context.Background()
	userID := model.UserID("user-1")

	memories := []*model.Memory{
		testMemory("mem-1", userID, "Paris trip", "Visited the Louvre"),
	}
	matches := []*adapter.VectorMatch{{ID: "mem-1", Score: 0.85}}

	var gotContents []*genai.Content
	var gotConfig *genai.GenerateContentConfig
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotContents = contents
			gotConfig = config
			return genaiResponse("answer"), nil
		},
	}

	uc := newChatUseCase(gemini, matches, memories)

	history := []model.ChatTurn{
		{Role: model.ChatRoleUser, Content: "Hello"},
		{Role: model.ChatRoleAssistant, Content: "Hi, how can I help?"},
	}
	uc.Answer(ctx, userID, "What did I do in Paris?", history)

	// Retrieved context flows into the system instruction.
	gt.V(t, gotConfig).NotNil()
	gt.A(t, gotConfig.SystemInstruction.Parts).Length(1)
	gt.S(t, gotConfig.SystemInstruction.Parts[0].Text).Contains("Paris trip")
	gt.S(t, gotConfig.SystemInstruction.Parts[0].Text).Contains("Visited the Louvre")

	gt.V(t, gotConfig.Temperature).NotNil()
	gt.Equal(t, *gotConfig.Temperature, float32(0.7))
	gt.Equal(t, gotConfig.MaxOutputTokens, int32(1000))

	// History precedes the current message, with assistant turns mapped to
	// the model role.
	gt.A(t, gotContents).Length(3)
	gt.Equal(t, gotContents[0].Role, genai.RoleUser)
	gt.Equal(t, gotContents[1].Role, genai.RoleModel)
	gt.Equal(t, gotContents[2].Role, genai.RoleUser)
	gt.Equal(t, gotContents[2].Parts[0].Text, "What did I do in Paris?")
}
