package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/pkg/logger"
)

// seedTerms are the generic pedagogical probes used to sample a corpus when
// no explicit files are selected.
var seedTerms = []string{"definition", "concept", "theory", "formula", "principle", "method"}

// Options bounds quiz context assembly.
type Options struct {
	// MaxContextChunks caps the corpus-wide sampling path.
	MaxContextChunks int
	// MaxCharsPerFile caps each file's contribution on the file-scoped path.
	// Zero means unbounded, favoring complete coverage of explicitly selected
	// material.
	MaxCharsPerFile int
}

// Request carries one quiz generation request.
type Request struct {
	FileIDs      []string
	Owner        string
	Prompt       string
	Type         models.QuizType
	NumQuestions int
}

// Generator builds quiz context from the corpus store and asks the
// generation collaborator for a structured question set.
type Generator struct {
	store interfaces.CorpusStore
	llm   interfaces.LLM
	opts  Options
	log   *logger.Logger
}

// New creates a Generator.
func New(store interfaces.CorpusStore, llm interfaces.LLM, opts Options, log *logger.Logger) *Generator {
	if opts.MaxContextChunks <= 0 {
		opts.MaxContextChunks = 15
	}
	return &Generator{store: store, llm: llm, opts: opts, log: log}
}

// Generate assembles context per the request scope, invokes the generation
// collaborator once, and parses its reply. A reply that cannot be parsed as
// JSON degrades to a raw-response payload instead of failing the request.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.QuizResult, error) {
	if req.NumQuestions < 1 || req.NumQuestions > 20 {
		return &models.QuizResult{
			Status:  models.StatusError,
			Message: "num_questions must be an integer between 1 and 20",
		}, nil
	}
	if !models.ValidQuizType(req.Type) {
		return &models.QuizResult{
			Status:  models.StatusError,
			Message: fmt.Sprintf("quiz_type must be one of: %s, %s, %s, %s", models.QuizTypeMultipleChoice, models.QuizTypeShortAnswer, models.QuizTypeEssay, models.QuizTypeMixed),
		}, nil
	}

	var contextText string
	var chunkCount int
	var sourceFiles, missingFiles []string
	var err error
	if len(req.FileIDs) > 0 {
		contextText, chunkCount, sourceFiles, missingFiles, err = g.fileContext(ctx, req.FileIDs, req.Owner)
	} else {
		contextText, chunkCount, err = g.corpusContext(ctx, req.Owner)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(contextText) == "" {
		return &models.QuizResult{
			Status:       models.StatusWarning,
			Message:      "no study material available to generate a quiz from",
			MissingFiles: missingFiles,
		}, nil
	}

	prompt := g.buildPrompt(req, contextText)
	reply, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	info := models.QuizInfo{
		Title:        "Generated Quiz",
		Type:         string(req.Type),
		NumQuestions: req.NumQuestions,
	}

	quiz, ok := parseQuiz(reply)
	if !ok {
		g.log.Warn("Quiz reply was not valid JSON, returning raw response")
		return &models.QuizResult{
			Status:        models.StatusSuccess,
			QuizInfo:      &info,
			RawResponse:   reply,
			Note:          "quiz could not be parsed as structured JSON; raw model output included",
			SourceFiles:   sourceFiles,
			MissingFiles:  missingFiles,
			ContextChunks: chunkCount,
		}, nil
	}

	return &models.QuizResult{
		Status:        models.StatusSuccess,
		Quiz:          quiz,
		SourceFiles:   sourceFiles,
		MissingFiles:  missingFiles,
		ContextChunks: chunkCount,
	}, nil
}

// fileContext concatenates each selected file's full stored text under a
// labeled header. Explicit selection favors complete coverage over relevance
// ranking. Files with no stored chunks are reported, not fatal.
func (g *Generator) fileContext(ctx context.Context, fileIDs []string, owner string) (string, int, []string, []string, error) {
	var sections []string
	var chunkCount int
	var found, missing []string

	for _, fileID := range fileIDs {
		chunks, err := g.store.ChunksByFileID(ctx, fileID, owner)
		if err != nil {
			return "", 0, nil, nil, fmt.Errorf("failed to load file %s for quiz context: %w", fileID, err)
		}
		if len(chunks) == 0 {
			missing = append(missing, fileID)
			continue
		}

		filename := chunks[0].Filename()
		if filename == "" {
			filename = fileID
		}
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		body := strings.Join(texts, "\n")
		if g.opts.MaxCharsPerFile > 0 && len(body) > g.opts.MaxCharsPerFile {
			cut := g.opts.MaxCharsPerFile
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut]
		}

		sections = append(sections, fmt.Sprintf("From %s:\n%s", filename, body))
		chunkCount += len(chunks)
		found = append(found, fileID)
	}

	return strings.Join(sections, "\n\n"), chunkCount, found, missing, nil
}

// corpusContext samples the corpus with the pedagogical seed terms,
// deduplicates by exact text, and caps the total.
func (g *Generator) corpusContext(ctx context.Context, owner string) (string, int, error) {
	seen := make(map[string]bool)
	var texts []string

	for _, term := range seedTerms {
		if len(texts) >= g.opts.MaxContextChunks {
			break
		}
		chunks, err := g.store.Search(ctx, term, g.opts.MaxContextChunks, interfaces.Filter{OwnerUserID: owner})
		if err != nil {
			return "", 0, fmt.Errorf("failed to sample corpus for quiz context: %w", err)
		}
		for _, c := range chunks {
			if seen[c.Text] {
				continue
			}
			seen[c.Text] = true
			texts = append(texts, c.Text)
			if len(texts) >= g.opts.MaxContextChunks {
				break
			}
		}
	}

	return strings.Join(texts, "\n"), len(texts), nil
}

func (g *Generator) buildPrompt(req Request, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an educational quiz generator. Create exactly %d questions based only on the study material below.\n\n", req.NumQuestions)
	b.WriteString("Question format: ")
	b.WriteString(typeDescription(req.Type))
	b.WriteString("\n")
	b.WriteString("Vary the difficulty across questions and avoid ambiguous or trick distractors. Every answer must be supported by the material.\n")
	if req.Prompt != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", req.Prompt)
	}
	b.WriteString(`
Respond with a single JSON object of this shape and nothing else:
{
  "quiz_info": {"title": "...", "type": "...", "num_questions": N, "difficulty": "..."},
  "questions": [
    {"id": 1, "type": "...", "question": "...", "options": ["..."], "correct_answer": "...", "explanation": "...", "difficulty": "...", "topic": "..."}
  ]
}
Omit "options" for non-multiple-choice questions.

Study material:
`)
	b.WriteString(contextText)
	return b.String()
}

func typeDescription(t models.QuizType) string {
	switch t {
	case models.QuizTypeMultipleChoice:
		return "multiple choice questions, each with 4 options and exactly one correct answer"
	case models.QuizTypeShortAnswer:
		return "short answer questions requiring one to three sentence responses"
	case models.QuizTypeEssay:
		return "essay questions requiring extended analytical responses"
	default:
		return "a mix of multiple choice, short answer, and essay questions"
	}
}

// parseQuiz extracts the first-{ to last-} span of the reply and parses it.
// Generation output is non-deterministic, so this stays best-effort.
func parseQuiz(reply string) (*models.Quiz, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var quiz models.Quiz
	if err := json.Unmarshal([]byte(reply[start:end+1]), &quiz); err != nil {
		return nil, false
	}
	if len(quiz.Questions) == 0 {
		return nil, false
	}
	return &quiz, true
}
