package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"StudyMind/internal/rag/interfaces"
	"StudyMind/pkg/retry"
)

// ErrEmptyResponse indicates the model returned no usable text candidate.
var ErrEmptyResponse = errors.New("model returned no text")

// Gemini is a stateless single-turn generation client. Each call is an
// independent GenerateContent request; the retrieval context is rebuilt per
// request, so no chat session is held.
type Gemini struct {
	text  *genai.GenerativeModel
	audio *genai.GenerativeModel
	retry retry.Policy
}

// NewGemini creates a client holding one model for text generation and one
// for audio understanding.
func NewGemini(ctx context.Context, apiKey, textModel, audioModel string, policy retry.Policy) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{
		text:  client.GenerativeModel(textModel),
		audio: client.GenerativeModel(audioModel),
		retry: policy,
	}, nil
}

// Generate sends one prompt and returns the model's text reply.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.text, "generate content", genai.Text(prompt))
}

// GenerateWithAudio sends a prompt together with raw audio bytes.
func (g *Gemini) GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	return g.generate(ctx, g.audio, "generate content with audio",
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: audio},
	)
}

func (g *Gemini) generate(ctx context.Context, model *genai.GenerativeModel, op string, parts ...genai.Part) (string, error) {
	var reply string
	err := g.retry.Do(ctx, op, func(ctx context.Context) error {
		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			return err
		}
		reply, err = textFromResponse(resp)
		return err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// textFromResponse concatenates the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

var (
	_ interfaces.LLM      = (*Gemini)(nil)
	_ interfaces.AudioLLM = (*Gemini)(nil)
)
