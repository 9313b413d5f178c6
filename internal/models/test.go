package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Test statuses.
const (
	TestStatusGenerating = "generating"
	TestStatusReady      = "ready"
	TestStatusError      = "error"
)

// TestQuestionCount is fixed: every generated test has exactly 20 questions.
const TestQuestionCount = 20

// TestQuestion is one validated multiple-choice question. IDs are 1-based
// and contiguous; options carry exactly the keys A, B and C.
type TestQuestion struct {
	ID            int               `json:"id"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
}

type DocumentTest struct {
	ID                    uuid.UUID       `json:"id"`
	DocumentID            uuid.UUID       `json:"document_id"`
	UserID                uuid.UUID       `json:"user_id"`
	Title                 string          `json:"title"`
	QuestionCount         int             `json:"question_count"`
	QuestionsJSON         json.RawMessage `json:"questions"`
	Status                string          `json:"status"`
	GenerationError       string          `json:"generation_error,omitempty"`
	GenerationTimeSeconds float64         `json:"generation_time_seconds"`
	CreatedAt             time.Time       `json:"created_at"`
}

// QuestionResult is the per-question review detail stored on an attempt.
type QuestionResult struct {
	QuestionID    int               `json:"question_id"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	UserAnswer    string            `json:"user_answer"`
	CorrectAnswer string            `json:"correct_answer"`
	IsCorrect     bool              `json:"is_correct"`
	Explanation   string            `json:"explanation"`
}

type TestAttempt struct {
	ID               uuid.UUID       `json:"id"`
	TestID           uuid.UUID       `json:"test_id"`
	UserID           uuid.UUID       `json:"user_id"`
	AnswersJSON      json.RawMessage `json:"answers"`
	Score            float64         `json:"score"`
	Grade            string          `json:"grade"`
	Passed           bool            `json:"passed"`
	CorrectCount     int             `json:"correct_count"`
	IncorrectCount   int             `json:"incorrect_count"`
	ResultsJSON      json.RawMessage `json:"results"`
	TimeTakenSeconds *int            `json:"time_taken_seconds"`
	CompletedAt      time.Time       `json:"completed_at"`
}

type GenerateTestRequest struct {
	DocumentID uuid.UUID `json:"document_id"`
}

type SubmitTestRequest struct {
	Answers          map[string]string `json:"answers"`
	TimeTakenSeconds *int              `json:"time_taken_seconds"`
}

type TestStats struct {
	TotalTestsTaken        int            `json:"total_tests_taken"`
	TestsPassed            int            `json:"tests_passed"`
	TestsFailed            int            `json:"tests_failed"`
	PassRate               float64        `json:"pass_rate"`
	AverageScore           float64        `json:"average_score"`
	BestScore              float64        `json:"best_score"`
	WorstScore             float64        `json:"worst_score"`
	TotalQuestionsAnswered int            `json:"total_questions_answered"`
	TotalCorrectAnswers    int            `json:"total_correct_answers"`
	AccuracyRate           float64        `json:"accuracy_rate"`
	GradeDistribution      map[string]int `json:"grade_distribution"`
}
