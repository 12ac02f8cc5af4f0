package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"StudyMind/internal/rag/interfaces"
	"StudyMind/pkg/retry"
)

// GoogleModel produces embeddings through the Google GenAI Embedding API.
type GoogleModel struct {
	model *genai.EmbeddingModel
	retry retry.Policy
}

// NewGoogleModel creates an embedding client for the named model.
func NewGoogleModel(ctx context.Context, apiKey, modelName string, policy retry.Policy) (*GoogleModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GoogleModel{
		model: client.EmbeddingModel(modelName),
		retry: policy,
	}, nil
}

// Embed generates the embedding vector for one text.
func (m *GoogleModel) Embed(ctx context.Context, text string) ([]float32, error) {
	var values []float32
	err := m.retry.Do(ctx, "embed content", func(ctx context.Context) error {
		res, err := m.model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		values = res.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// EmbedBatch generates embedding vectors for a batch of texts in one request.
func (m *GoogleModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	var embeddings [][]float32
	err := m.retry.Do(ctx, "batch embed contents", func(ctx context.Context) error {
		res, err := m.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return err
		}
		embeddings = make([][]float32, 0, len(res.Embeddings))
		for _, emb := range res.Embeddings {
			embeddings = append(embeddings, emb.Values)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return embeddings, nil
}

var _ interfaces.EmbeddingModel = (*GoogleModel)(nil)
