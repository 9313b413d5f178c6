package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"learnify-backend/internal/models"
	"learnify-backend/internal/repository"
)

// minTestSourceChars is the minimum extracted-text length a document needs
// before a test can be generated from it.
const minTestSourceChars = 100

type TestService struct {
	testRepo  *repository.TestRepo
	docRepo   *repository.DocumentRepo
	generator textGenerator
	events    *EventPublisher
}

func NewTestService(
	testRepo *repository.TestRepo,
	docRepo *repository.DocumentRepo,
	generator textGenerator,
	events *EventPublisher,
) *TestService {
	return &TestService{
		testRepo:  testRepo,
		docRepo:   docRepo,
		generator: generator,
		events:    events,
	}
}

// Generate creates a practice test from a ready document. The test row is
// created in status generating before the model call so polling clients see
// it immediately; on any generation failure the row is kept in status error
// with the message, never deleted. The returned test carries the final
// status, ready or error.
func (s *TestService) Generate(ctx context.Context, userID, documentID uuid.UUID) (*models.DocumentTest, error) {
	doc, err := s.getOwnedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	if doc.Status != models.DocStatusReady || len(doc.ExtractedText) < minTestSourceChars {
		return nil, &ValidationError{Fields: map[string]string{
			"document_id": "Document must be fully processed with at least 100 characters of extracted text",
		}}
	}

	test := &models.DocumentTest{
		DocumentID:    doc.ID,
		UserID:        userID,
		Title:         "Practice Test - " + doc.Title,
		QuestionCount: models.TestQuestionCount,
		Status:        models.TestStatusGenerating,
	}
	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, err
	}
	s.events.TestUpdate(ctx, userID, test)

	start := time.Now()

	text, truncated := truncateDocumentText(doc.ExtractedText)
	if truncated {
		log.Printf("test generation: document %s text too long, truncating to %d chars",
			doc.ID, maxDocumentPromptChars)
	}

	raw, err := s.generator.GenerateText(ctx, "", buildTestGenerationPrompt(text))
	if err != nil {
		return s.failGeneration(ctx, test, &ExternalServiceError{Message: "Test generation failed", Err: err})
	}

	questions, err := parseTestQuestions(raw)
	if err != nil {
		return s.failGeneration(ctx, test, err)
	}

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return s.failGeneration(ctx, test, err)
	}

	elapsed := time.Since(start).Seconds()
	if err := s.testRepo.MarkReady(ctx, test.ID, questionsJSON, elapsed); err != nil {
		return nil, err
	}

	test.QuestionsJSON = questionsJSON
	test.Status = models.TestStatusReady
	test.GenerationTimeSeconds = elapsed
	s.events.TestUpdate(ctx, userID, test)

	return test, nil
}

// failGeneration records the failure on the test row and hands back the row
// in error status. The caller still gets the resource, not a raw 500.
func (s *TestService) failGeneration(ctx context.Context, test *models.DocumentTest, cause error) (*models.DocumentTest, error) {
	log.Printf("test generation failed for test %s: %v", test.ID, cause)

	test.Status = models.TestStatusError
	test.GenerationError = cause.Error()
	if err := s.testRepo.MarkError(ctx, test.ID, test.GenerationError); err != nil {
		log.Printf("failed to mark test %s as errored: %v", test.ID, err)
	}
	s.events.TestUpdate(ctx, test.UserID, test)

	return test, nil
}

func (s *TestService) GetTest(ctx context.Context, userID, testID uuid.UUID) (*models.DocumentTest, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Test not found"}
		}
		return nil, err
	}
	if test.UserID != userID {
		return nil, &NotFoundError{Message: "Test not found"}
	}
	return test, nil
}

func (s *TestService) ListTests(ctx context.Context, userID uuid.UUID) ([]*models.DocumentTest, error) {
	return s.testRepo.ListByUser(ctx, userID)
}

func (s *TestService) DeleteTest(ctx context.Context, userID, testID uuid.UUID) error {
	if _, err := s.GetTest(ctx, userID, testID); err != nil {
		return err
	}
	return s.testRepo.Delete(ctx, testID)
}

// Submit grades an answer set against a ready test and persists the attempt.
func (s *TestService) Submit(ctx context.Context, userID, testID uuid.UUID, req models.SubmitTestRequest) (*models.TestAttempt, error) {
	test, err := s.GetTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	if test.Status != models.TestStatusReady {
		return nil, &ValidationError{Fields: map[string]string{"test_id": "Test is not ready to be taken"}}
	}

	for qid, label := range req.Answers {
		if label != "" && label != "A" && label != "B" && label != "C" {
			return nil, &ValidationError{Fields: map[string]string{
				"answers": fmt.Sprintf("Answer for question %s must be A, B, C or empty", qid),
			}}
		}
	}
	if req.TimeTakenSeconds != nil && (*req.TimeTakenSeconds < 0 || *req.TimeTakenSeconds > 86400) {
		return nil, &ValidationError{Fields: map[string]string{
			"time_taken_seconds": "Time taken must be between 0 and 86400 seconds",
		}}
	}

	var questions []models.TestQuestion
	if err := json.Unmarshal(test.QuestionsJSON, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode stored questions for test %s: %w", test.ID, err)
	}

	grade := GradeTest(questions, req.Answers)

	answers := req.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	resultsJSON, err := json.Marshal(grade.Results)
	if err != nil {
		return nil, err
	}

	attempt := &models.TestAttempt{
		TestID:           test.ID,
		UserID:           userID,
		AnswersJSON:      answersJSON,
		Score:            grade.Score,
		Grade:            grade.Grade,
		Passed:           grade.Passed,
		CorrectCount:     grade.CorrectCount,
		IncorrectCount:   grade.IncorrectCount,
		ResultsJSON:      resultsJSON,
		TimeTakenSeconds: req.TimeTakenSeconds,
	}
	if err := s.testRepo.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}
	s.events.AttemptGraded(ctx, userID, attempt)

	return attempt, nil
}

func (s *TestService) GetAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*models.TestAttempt, error) {
	attempt, err := s.testRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Attempt not found"}
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, &NotFoundError{Message: "Attempt not found"}
	}
	return attempt, nil
}

func (s *TestService) ListAttempts(ctx context.Context, userID uuid.UUID) ([]*models.TestAttempt, error) {
	return s.testRepo.ListAttemptsByUser(ctx, userID)
}

func (s *TestService) ListAttemptsByDocument(ctx context.Context, userID, documentID uuid.UUID) ([]*models.TestAttempt, error) {
	if _, err := s.getOwnedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.testRepo.ListAttemptsByDocument(ctx, documentID, userID)
}

func (s *TestService) Stats(ctx context.Context, userID uuid.UUID) (*models.TestStats, error) {
	return s.testRepo.Stats(ctx, userID)
}

func (s *TestService) getOwnedDocument(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Document not found"}
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, &NotFoundError{Message: "Document not found"}
	}
	return doc, nil
}

func buildTestGenerationPrompt(documentText string) string {
	var b strings.Builder

	b.WriteString("You are an expert educational assessment creator. Your task is to generate a practice test based on the following document content.\n\n")
	b.WriteString("DOCUMENT CONTENT:\n")
	b.WriteString(documentText)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString(`Generate exactly 20 multiple-choice questions based on the document content above. Each question should:
1. Test important concepts, facts, or ideas from the document
2. Have exactly 3 answer options labeled A, B, and C
3. Have only ONE correct answer
4. Include a detailed explanation of why the correct answer is right
5. Be clear, unambiguous, and appropriate for studying
6. Cover different parts of the document (ensure variety)
7. Range from basic recall to deeper understanding

CRITICAL: You must respond with ONLY valid JSON. Do not include any text before or after the JSON. Do not use markdown code blocks.

OUTPUT FORMAT (respond with this exact JSON structure):
[
  {
    "id": 1,
    "question": "What is the main topic of the document?",
    "options": {
      "A": "First option text",
      "B": "Second option text",
      "C": "Third option text"
    },
    "correct_answer": "A",
    "explanation": "Detailed explanation of why A is correct and why B and C are incorrect."
  }
  ... (continue for all 20 questions)
]

IMPORTANT RULES:
- Generate EXACTLY 20 questions (no more, no less)
- Each question MUST have exactly 3 options (A, B, C)
- Each question MUST have exactly one correct answer
- IDs must be numbered 1 through 20
- Respond with ONLY the JSON array, nothing else
- Do NOT wrap the JSON in markdown code blocks
- Do NOT include any explanatory text before or after the JSON
- Ensure the JSON is valid and properly formatted

Generate the 20 questions now:`)

	return b.String()
}

// rawQuestion uses pointer fields so a missing key is distinguishable from a
// zero value during validation.
type rawQuestion struct {
	ID            *int              `json:"id"`
	Question      *string           `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer *string           `json:"correct_answer"`
	Explanation   *string           `json:"explanation"`
}

// parseTestQuestions validates the model's raw reply into exactly 20
// well-formed questions. Any violation rejects the whole batch; there is no
// partial acceptance.
func parseTestQuestions(raw string) ([]models.TestQuestion, error) {
	cleaned := stripCodeFence(raw)

	var rawQuestions []rawQuestion
	if err := json.Unmarshal([]byte(cleaned), &rawQuestions); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("Invalid JSON response from AI: %v", err)}
	}

	if len(rawQuestions) != models.TestQuestionCount {
		return nil, &ParseError{Message: fmt.Sprintf("Expected %d questions, got %d", models.TestQuestionCount, len(rawQuestions))}
	}

	questions := make([]models.TestQuestion, 0, len(rawQuestions))
	for i, rq := range rawQuestions {
		expectedID := i + 1
		q, err := validateQuestion(rq, expectedID)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func validateQuestion(rq rawQuestion, expectedID int) (models.TestQuestion, error) {
	var zero models.TestQuestion

	fail := func(format string, args ...any) (models.TestQuestion, error) {
		return zero, &ParseError{Message: fmt.Sprintf("Question %d: ", expectedID) + fmt.Sprintf(format, args...)}
	}

	if rq.ID == nil {
		return fail("missing required field: id")
	}
	if rq.Question == nil {
		return fail("missing required field: question")
	}
	if rq.Options == nil {
		return fail("missing required field: options")
	}
	if rq.CorrectAnswer == nil {
		return fail("missing required field: correct_answer")
	}
	if rq.Explanation == nil {
		return fail("missing required field: explanation")
	}

	if *rq.ID != expectedID {
		return fail("ID mismatch: expected %d, got %d", expectedID, *rq.ID)
	}

	if len(rq.Options) != 3 {
		return fail("options must contain exactly keys A, B and C")
	}
	for _, label := range []string{"A", "B", "C"} {
		opt, ok := rq.Options[label]
		if !ok {
			return fail("missing option %s", label)
		}
		if strings.TrimSpace(opt) == "" {
			return fail("option %s must be a non-empty string", label)
		}
	}

	if *rq.CorrectAnswer != "A" && *rq.CorrectAnswer != "B" && *rq.CorrectAnswer != "C" {
		return fail("correct_answer must be A, B, or C")
	}
	if strings.TrimSpace(*rq.Question) == "" {
		return fail("question text must be a non-empty string")
	}
	if strings.TrimSpace(*rq.Explanation) == "" {
		return fail("explanation must be a non-empty string")
	}

	return models.TestQuestion{
		ID:            *rq.ID,
		Question:      *rq.Question,
		Options:       rq.Options,
		CorrectAnswer: *rq.CorrectAnswer,
		Explanation:   *rq.Explanation,
	}, nil
}
