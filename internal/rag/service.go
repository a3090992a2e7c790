package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings is the read-only configuration a Service is built with. Model
// names are already resolved.
type Settings struct {
	ChatModel       string
	RetrievalLimit  int
	MaxContextChars int
	EmbeddingDim    int
	AnswerLang      string
	Generation      GenerationParams
}

type Service struct {
	store      VectorStore
	embeddings EmbeddingsClient
	settings   Settings

	retriever *Retriever
	assembler *Assembler
	generator *Generator

	logger *zap.Logger
	newID  func() string
}

// NewService wires the pipeline. store may be nil, which disables
// retrieval and ingestion.
func NewService(store VectorStore, embeddings EmbeddingsClient, llm LLMClient, settings Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Generation == (GenerationParams{}) {
		settings.Generation = DefaultGenerationParams
	}

	retriever := NewRetriever(store, embeddings, settings.RetrievalLimit, logger)

	return &Service{
		store:      store,
		embeddings: embeddings,
		settings:   settings,
		retriever:  retriever,
		assembler:  NewAssembler(retriever, settings.MaxContextChars),
		generator:  NewGenerator(llm, settings.ChatModel, settings.Generation, settings.AnswerLang),
		logger:     logger,
		newID:      func() string { return uuid.NewString() },
	}
}

// Ask validates the request and answers it. Only validation errors are
// returned; retrieval and generation failures end up in the answer text.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	q, err := NewQuery(req)
	if err != nil {
		return nil, err
	}
	return s.Answer(ctx, q), nil
}

// NewQuery applies the request boundary rules.
func NewQuery(req AskRequest) (Query, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Query{}, ErrEmptyQuestion
	}

	q := Query{Question: question, Mode: ModeNormal}
	if req.SelectedText != nil {
		q.SelectedText = *req.SelectedText
	}
	if req.ConversationID != nil {
		q.ConversationID = strings.TrimSpace(*req.ConversationID)
	}
	if req.SelectionOnly {
		if strings.TrimSpace(q.SelectedText) == "" {
			return Query{}, ErrMissingSelection
		}
		q.Mode = ModeSelectionOnly
	}
	return q, nil
}

// Answer runs assemble then generate for an already validated query.
func (s *Service) Answer(ctx context.Context, q Query) *AskResponse {
	conversationID := q.ConversationID
	if conversationID == "" {
		conversationID = s.newID()
	}

	contextText, source := s.assembler.Assemble(ctx, q.Question, q.SelectedText, q.Mode)

	s.logger.Debug("context assembled",
		zap.String("conversation_id", conversationID),
		zap.Stringer("mode", q.Mode),
		zap.String("source", string(source)),
		zap.Int("context_chars", utf8.RuneCountInString(contextText)),
	)

	answer, err := s.generator.Generate(ctx, q.Question, contextText)
	if err != nil {
		kind := ClassifyGenerationError(err)
		s.logger.Error("generation failed",
			zap.String("conversation_id", conversationID),
			zap.String("model", s.generator.Model()),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
		answer = FailureMessage(kind, s.generator.Model(), err)
	}

	return &AskResponse{
		Answer:         answer,
		ConversationID: conversationID,
		ContextSource:  source,
	}
}

// Ingest embeds each non-blank chunk as a document and upserts them as new
// points. It returns the number of points written.
func (s *Service) Ingest(ctx context.Context, chunks []string) (int, error) {
	if s.store == nil {
		return 0, ErrStoreUnavailable
	}

	points := make([]Point, 0, len(chunks))
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			continue
		}
		vec, err := s.embeddings.Embed(ctx, c, TaskDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		points = append(points, Point{
			ID:     s.newID(),
			Vector: vec,
			Text:   c,
		})
	}
	if len(points) == 0 {
		return 0, nil
	}

	if err := s.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("upsert points: %w", err)
	}

	s.logger.Info("chunks ingested", zap.Int("points", len(points)))
	return len(points), nil
}

// EnsureCollection creates the collection if it does not exist yet. A
// non-positive size uses the configured embedding dimension.
func (s *Service) EnsureCollection(ctx context.Context, vectorSize int) error {
	if s.store == nil {
		return ErrStoreUnavailable
	}
	if vectorSize <= 0 {
		vectorSize = s.settings.EmbeddingDim
	}
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size %d", vectorSize)
	}
	if err := s.store.EnsureCollection(ctx, vectorSize); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

// Retrieve is the strict form of the retrieval step: errors are returned.
func (s *Service) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	return s.retriever.Retrieve(ctx, query, limit)
}

// ProbeResult reports a one-shot generation against the resolved model.
type ProbeResult struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message"`
}

// ProbeModel sends a trivial prompt to check the key and model name.
func (s *Service) ProbeModel(ctx context.Context) ProbeResult {
	model := s.generator.Model()

	resp, err := s.generator.llm.Generate(ctx, model, "Say hello in one word.", s.settings.Generation)
	if err != nil {
		return ProbeResult{
			Status:  "error",
			Model:   model,
			Error:   err.Error(),
			Message: FailureMessage(ClassifyGenerationError(err), model, err),
		}
	}

	return ProbeResult{
		Status:   "success",
		Model:    model,
		Response: strings.TrimSpace(extractAnswer(resp)),
		Message:  "Gemini API is working correctly!",
	}
}
