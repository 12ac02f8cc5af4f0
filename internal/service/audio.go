package service

import (
	"context"
	"fmt"
	"strings"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/retriever"
)

// AudioChatResult is the response of the spoken-question flow.
type AudioChatResult struct {
	Status              models.Status      `json:"status"`
	Answer              string             `json:"answer"`
	TranscribedQuestion string             `json:"transcribed_question,omitempty"`
	Sources             []retriever.Source `json:"sources"`
	ContextUsed         bool               `json:"context_used"`
	AudioProcessed      bool               `json:"audio_processed"`
}

// AudioChat answers a spoken question in two model calls: the first
// transcribes the audio into a text question so retrieval can run over the
// corpus, the second produces the answer from the retrieved context plus the
// original audio. Retrieval failure degrades to answering from the audio
// alone rather than failing the request.
func (s *Service) AudioChat(ctx context.Context, audio []byte, mimeType, owner string, fileIDs []string) (*AudioChatResult, error) {
	if s.audio == nil {
		return &AudioChatResult{
			Status: models.StatusError,
			Answer: "audio processing is not available",
		}, nil
	}

	transcribed, err := s.audio.GenerateWithAudio(ctx,
		"Transcribe the student's spoken question from this audio. Reply with only the transcribed question text, nothing else.",
		audio, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe audio: %w", err)
	}
	transcribed = strings.TrimSpace(transcribed)

	var contextText string
	var sources []retriever.Source
	if transcribed != "" {
		if ret := s.audioContext(ctx, transcribed, owner, fileIDs); ret != nil {
			contextText = ret.Context
			sources = ret.Sources
		}
	}

	prompt := "You are an educational AI assistant. Answer the student's spoken question clearly and helpfully with educational content.\n"
	if contextText != "" {
		prompt += fmt.Sprintf("\nUse the following context from the student's study materials:\n%s\n", contextText)
	}
	prompt += "\nThe student's question is in the attached audio. Provide a comprehensive educational response."

	answer, err := s.audio.GenerateWithAudio(ctx, prompt, audio, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to answer audio question: %w", err)
	}

	if sources == nil {
		sources = []retriever.Source{}
	}
	return &AudioChatResult{
		Status:              models.StatusSuccess,
		Answer:              answer,
		TranscribedQuestion: transcribed,
		Sources:             sources,
		ContextUsed:         contextText != "",
		AudioProcessed:      true,
	}, nil
}

// audioContext retrieves context for the transcribed question, scoped to the
// selected files when any were given. Errors are logged and ignored.
func (s *Service) audioContext(ctx context.Context, question, owner string, fileIDs []string) *retriever.Result {
	if len(fileIDs) > 0 {
		ret, err := s.retriever.MultiFileContext(ctx, question, fileIDs, owner)
		if err != nil {
			s.log.WithErr(err).Warn("Audio chat file retrieval failed, answering without context")
			return nil
		}
		if ret.Status != models.StatusSuccess {
			return nil
		}
		return &ret.Result
	}

	ret, err := s.retriever.CorpusContext(ctx, question, owner)
	if err != nil {
		s.log.WithErr(err).Warn("Audio chat retrieval failed, answering without context")
		return nil
	}
	if ret.Status != models.StatusSuccess {
		return nil
	}
	return ret
}
