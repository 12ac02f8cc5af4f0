package models

// QuizType selects the question format of a generated quiz.
type QuizType string

const (
	QuizTypeMultipleChoice QuizType = "multiple_choice"
	QuizTypeShortAnswer    QuizType = "short_answer"
	QuizTypeEssay          QuizType = "essay"
	QuizTypeMixed          QuizType = "mixed"
)

// ValidQuizType reports whether t is one of the supported quiz types.
func ValidQuizType(t QuizType) bool {
	switch t {
	case QuizTypeMultipleChoice, QuizTypeShortAnswer, QuizTypeEssay, QuizTypeMixed:
		return true
	}
	return false
}

// QuizInfo describes a generated quiz as a whole.
type QuizInfo struct {
	Title        string `json:"title"`
	Type         string `json:"type"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty,omitempty"`
}

// QuizQuestion is one generated question.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Topic         string   `json:"topic,omitempty"`
}

// Quiz is the structured object the generation collaborator is asked to
// return.
type Quiz struct {
	QuizInfo  QuizInfo       `json:"quiz_info"`
	Questions []QuizQuestion `json:"questions"`
}

// QuizResult is the tagged result of a quiz generation request. When the
// collaborator's reply cannot be parsed as JSON, Quiz is nil and RawResponse
// plus Note carry the degraded payload instead of failing the request.
type QuizResult struct {
	Status        Status    `json:"status"`
	Message       string    `json:"message,omitempty"`
	Quiz          *Quiz     `json:"quiz,omitempty"`
	QuizInfo      *QuizInfo `json:"quiz_info,omitempty"`
	RawResponse   string    `json:"raw_response,omitempty"`
	Note          string    `json:"note,omitempty"`
	SourceFiles   []string  `json:"source_files,omitempty"`
	MissingFiles  []string  `json:"missing_files,omitempty"`
	ContextChunks int       `json:"context_chunks"`
}
