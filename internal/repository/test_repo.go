package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnify-backend/internal/models"
)

type TestRepo struct {
	pool *pgxpool.Pool
}

func NewTestRepo(pool *pgxpool.Pool) *TestRepo {
	return &TestRepo{pool: pool}
}

func (r *TestRepo) Create(ctx context.Context, t *models.DocumentTest) error {
	t.ID = uuid.New()
	if t.QuestionsJSON == nil {
		t.QuestionsJSON = json.RawMessage("[]")
	}
	query := `INSERT INTO document_tests (id, document_id, user_id, title, question_count, questions_json, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		t.ID, t.DocumentID, t.UserID, t.Title, t.QuestionCount, t.QuestionsJSON, t.Status,
	).Scan(&t.CreatedAt)
}

const testColumns = `id, document_id, user_id, title, question_count, questions_json,
	status, generation_error, generation_time_seconds, created_at`

func scanTest(row interface{ Scan(...any) error }) (*models.DocumentTest, error) {
	t := &models.DocumentTest{}
	err := row.Scan(
		&t.ID, &t.DocumentID, &t.UserID, &t.Title, &t.QuestionCount, &t.QuestionsJSON,
		&t.Status, &t.GenerationError, &t.GenerationTimeSeconds, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentTest, error) {
	query := `SELECT ` + testColumns + ` FROM document_tests WHERE id = $1`
	return scanTest(r.pool.QueryRow(ctx, query, id))
}

func (r *TestRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DocumentTest, error) {
	query := `SELECT ` + testColumns + ` FROM document_tests WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []*models.DocumentTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// MarkReady stores the validated question set and flips the test to ready.
func (r *TestRepo) MarkReady(ctx context.Context, id uuid.UUID, questions json.RawMessage, elapsedSeconds float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE document_tests SET questions_json = $1, status = 'ready', generation_time_seconds = $2 WHERE id = $3`,
		questions, elapsedSeconds, id,
	)
	return err
}

// MarkError records a failed generation; the row is kept for diagnostics.
func (r *TestRepo) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE document_tests SET status = 'error', generation_error = $1 WHERE id = $2`,
		message, id,
	)
	return err
}

func (r *TestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM document_tests WHERE id = $1", id)
	return err
}

// Attempts

func (r *TestRepo) CreateAttempt(ctx context.Context, a *models.TestAttempt) error {
	a.ID = uuid.New()
	query := `INSERT INTO test_attempts
		(id, test_id, user_id, answers_json, score, grade, passed, correct_count, incorrect_count, results_json, time_taken_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING completed_at`

	return r.pool.QueryRow(ctx, query,
		a.ID, a.TestID, a.UserID, a.AnswersJSON, a.Score, a.Grade, a.Passed,
		a.CorrectCount, a.IncorrectCount, a.ResultsJSON, a.TimeTakenSeconds,
	).Scan(&a.CompletedAt)
}

const attemptColumns = `id, test_id, user_id, answers_json, score, grade, passed,
	correct_count, incorrect_count, results_json, time_taken_seconds, completed_at`

func scanAttempt(row interface{ Scan(...any) error }) (*models.TestAttempt, error) {
	a := &models.TestAttempt{}
	err := row.Scan(
		&a.ID, &a.TestID, &a.UserID, &a.AnswersJSON, &a.Score, &a.Grade, &a.Passed,
		&a.CorrectCount, &a.IncorrectCount, &a.ResultsJSON, &a.TimeTakenSeconds, &a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *TestRepo) GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.TestAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM test_attempts WHERE id = $1`
	return scanAttempt(r.pool.QueryRow(ctx, query, id))
}

func (r *TestRepo) ListAttemptsByUser(ctx context.Context, userID uuid.UUID) ([]*models.TestAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM test_attempts WHERE user_id = $1 ORDER BY completed_at DESC`
	return r.listAttempts(ctx, query, userID)
}

func (r *TestRepo) ListAttemptsByDocument(ctx context.Context, documentID, userID uuid.UUID) ([]*models.TestAttempt, error) {
	query := `SELECT ` + attemptColumnsQualified + ` FROM test_attempts a
		JOIN document_tests t ON t.id = a.test_id
		WHERE t.document_id = $1 AND a.user_id = $2 ORDER BY a.completed_at DESC`
	return r.listAttempts(ctx, query, documentID, userID)
}

const attemptColumnsQualified = `a.id, a.test_id, a.user_id, a.answers_json, a.score, a.grade, a.passed,
	a.correct_count, a.incorrect_count, a.results_json, a.time_taken_seconds, a.completed_at`

func (r *TestRepo) listAttempts(ctx context.Context, query string, args ...any) ([]*models.TestAttempt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.TestAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats aggregates a user's attempt history in one round trip.
func (r *TestRepo) Stats(ctx context.Context, userID uuid.UUID) (*models.TestStats, error) {
	s := &models.TestStats{GradeDistribution: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}}

	query := `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE passed),
			COALESCE(AVG(score), 0),
			COALESCE(MAX(score), 0),
			COALESCE(MIN(score), 0),
			COALESCE(SUM(correct_count + incorrect_count), 0),
			COALESCE(SUM(correct_count), 0),
			COUNT(*) FILTER (WHERE grade = 'A'),
			COUNT(*) FILTER (WHERE grade = 'B'),
			COUNT(*) FILTER (WHERE grade = 'C'),
			COUNT(*) FILTER (WHERE grade = 'D'),
			COUNT(*) FILTER (WHERE grade = 'F')
		FROM test_attempts WHERE user_id = $1`

	var gA, gB, gC, gD, gF int
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.TotalTestsTaken, &s.TestsPassed, &s.AverageScore, &s.BestScore, &s.WorstScore,
		&s.TotalQuestionsAnswered, &s.TotalCorrectAnswers,
		&gA, &gB, &gC, &gD, &gF,
	)
	if err != nil {
		return nil, err
	}

	s.TestsFailed = s.TotalTestsTaken - s.TestsPassed
	if s.TotalTestsTaken > 0 {
		s.PassRate = float64(s.TestsPassed) / float64(s.TotalTestsTaken) * 100
	}
	if s.TotalQuestionsAnswered > 0 {
		s.AccuracyRate = float64(s.TotalCorrectAnswers) / float64(s.TotalQuestionsAnswered) * 100
	}
	s.GradeDistribution["A"] = gA
	s.GradeDistribution["B"] = gB
	s.GradeDistribution["C"] = gC
	s.GradeDistribution["D"] = gD
	s.GradeDistribution["F"] = gF

	return s, nil
}
